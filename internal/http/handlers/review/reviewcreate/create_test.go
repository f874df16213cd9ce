package reviewcreate

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	services "github.com/magabrotheeeer/reflect-accounts/internal/services/review"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Submit(ctx context.Context, userID int64, in models.DummyReview) (*models.Review, error) {
	args := m.Called(ctx, userID, in)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func TestCreateReviewHandler(t *testing.T) {
	valid := models.DummyReview{Name: "Ravi", DeviceModel: "Pixel 8", Rating: 5, Feedback: "Great tool for focus"}

	tests := []struct {
		name       string
		body       string
		mockReview *models.Review
		mockErr    error
		callSubmit bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "submitted",
			body:       `{"name":"Ravi","deviceModel":"Pixel 8","rating":5,"feedback":"Great tool for focus"}`,
			mockReview: &models.Review{ID: 11, Name: "Ravi", Status: models.ReviewPending},
			callSubmit: true,
			wantStatus: http.StatusCreated,
			wantBody:   `"reviewId":11`,
		},
		{
			name:       "missing device",
			body:       `{"name":"Ravi","rating":5,"feedback":"Great tool for focus"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "All fields are required",
		},
		{
			name:       "short feedback from service",
			body:       `{"name":"Ravi","deviceModel":"Pixel 8","rating":5,"feedback":"Great tool for focus"}`,
			mockErr:    fmt.Errorf("services.Submit: %w", services.ErrFeedbackShort),
			callSubmit: true,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Feedback must be at least 10 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callSubmit {
				svc.On("Submit", mock.Anything, int64(3), valid).Return(tt.mockReview, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/api/create-review", bytes.NewBufferString(tt.body))
			req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{ID: 3}))
			rr := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
