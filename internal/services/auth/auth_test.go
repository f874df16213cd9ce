package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/reflect-accounts/internal/lib/jwt"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/password"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
	services "github.com/magabrotheeeer/reflect-accounts/internal/services/auth"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для кеша профилей
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	if fill, ok := args.Get(0).(func(any)); ok {
		fill(result)
		return true, args.Error(1)
	}
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

var apiKeyRe = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)

func newAuth(users *UserRepoMock, c services.ProfileCache) (*services.AuthService, *customjwt.MakerImpl) {
	maker := customjwt.NewJWTMaker("test-secret", time.Hour)
	return services.NewAuthService(users, maker, c, sl.Discard()), maker
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name: "success",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "asha@example.com" &&
						u.Name == "Asha" &&
						u.CurrentPlan == plan.FreeTrial &&
						apiKeyRe.MatchString(u.APIKey) &&
						password.CompareHash(u.PasswordHash, "secret123") == nil
				})).Return(&models.User{ID: 42, Name: "Asha", Email: "asha@example.com"}, nil).Once()
			},
		},
		{
			name: "duplicate email",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).Return(nil, repository.ErrUserExists).Once()
			},
			wantErr: repository.ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserRepoMock)
			tt.setupMocks(users)
			svc, maker := newAuth(users, nil)

			u, token, err := svc.Signup(context.Background(), " Asha ", " Asha@Example.com", "secret123")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), u.ID)
			id, ok := maker.Verify(token)
			assert.True(t, ok)
			assert.Equal(t, int64(42), id)
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	stored := &models.User{ID: 7, Email: "asha@example.com", PasswordHash: hash}

	tests := []struct {
		name     string
		password string
		setup    func(r *UserRepoMock)
		wantErr  error
	}{
		{
			name:     "success",
			password: "secret123",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "asha@example.com").Return(stored, nil)
			},
		},
		{
			name:     "wrong password",
			password: "wrong",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "asha@example.com").Return(stored, nil)
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			password: "secret123",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "asha@example.com").Return(nil, repository.ErrUserNotFound)
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "storage failure",
			password: "secret123",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "asha@example.com").Return(nil, errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserRepoMock)
			tt.setup(users)
			svc, maker := newAuth(users, nil)

			u, token, err := svc.Login(context.Background(), "ASHA@example.com", tt.password)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.name == "storage failure":
				require.Error(t, err)
				assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
			default:
				require.NoError(t, err)
				assert.Equal(t, stored.ID, u.ID)
				id, ok := maker.Verify(token)
				assert.True(t, ok)
				assert.Equal(t, stored.ID, id)
			}
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	users := new(UserRepoMock)
	svc, maker := newAuth(users, nil)
	users.On("GetUserByID", mock.Anything, int64(5)).Return(&models.User{ID: 5}, nil)
	users.On("GetUserByID", mock.Anything, int64(6)).Return(nil, repository.ErrUserNotFound)

	good, err := maker.GenerateToken(5)
	require.NoError(t, err)
	u, err := svc.Authenticate(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)

	_, err = svc.Authenticate(context.Background(), "garbage")
	require.ErrorIs(t, err, customjwt.ErrInvalidToken)

	gone, err := maker.GenerateToken(6)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), gone)
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestAuthService_Me(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	user := &models.User{ID: 3, Name: "Ravi", Email: "ravi@example.com", APIKey: "k", CurrentPlan: plan.Pro, CreatedAt: created}

	t.Run("cache miss loads and stores", func(t *testing.T) {
		users, c := new(UserRepoMock), new(CacheMock)
		users.On("GetUserByID", mock.Anything, int64(3)).Return(user, nil).Once()
		c.On("Get", mock.Anything, "user:3", mock.Anything).Return(false, nil).Once()
		c.On("Set", mock.Anything, "user:3", user.Profile(), mock.Anything).Return(nil).Once()

		svc, _ := newAuth(users, c)
		view, err := svc.Me(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "k", view.APIKey)
		assert.Equal(t, plan.Pro, view.CurrentPlan)
		users.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("cache hit skips storage", func(t *testing.T) {
		users, c := new(UserRepoMock), new(CacheMock)
		c.On("Get", mock.Anything, "user:3", mock.Anything).Return(func(dst any) {
			*dst.(*models.UserView) = user.Profile()
		}, nil).Once()

		svc, _ := newAuth(users, c)
		view, err := svc.Me(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "Ravi", view.Name)
		users.AssertNotCalled(t, "GetUserByID")
	})

	t.Run("cache failure falls back to storage", func(t *testing.T) {
		users, c := new(UserRepoMock), new(CacheMock)
		users.On("GetUserByID", mock.Anything, int64(3)).Return(user, nil).Once()
		c.On("Get", mock.Anything, "user:3", mock.Anything).Return(false, errors.New("redis down")).Once()
		c.On("Set", mock.Anything, "user:3", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		svc, _ := newAuth(users, c)
		view, err := svc.Me(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), view.ID)
	})
}
