package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/smtp"
	"github.com/magabrotheeeer/reflect-accounts/internal/rabbitmq"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	return m.Called().String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error { return m.Called(from).Error(0) }
func (m *MockSMTPClient) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *MockSMTPClient) Quit() error            { return m.Called().Error(0) }
func (m *MockSMTPClient) Close() error           { return m.Called().Error(0) }

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

type bufferWriter struct {
	strings.Builder
}

func (b *bufferWriter) Close() error { return nil }

func expectDelivery(tr *MockTransport, to string) *bufferWriter {
	client := new(MockSMTPClient)
	w := &bufferWriter{}
	tr.On("GetSMTPUser").Return("noreply@reflect.app")
	tr.On("Connect").Return(client, nil).Once()
	client.On("Mail", "noreply@reflect.app").Return(nil).Once()
	client.On("Rcpt", to).Return(nil).Once()
	client.On("Data").Return(w, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return w
}

func TestSenderService_HandlePlanChanged(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantDiscard bool
		wantText    string
	}{
		{
			name:     "upgrade with end date",
			body:     `{"email":"a@example.com","name":"Asha","plan":"Pro","message":"Plan upgraded to Pro with 30-day extension","plan_end_date":"2025-07-01T00:00:00Z"}`,
			wantText: "active until 01 Jul 2025",
		},
		{
			name:     "deferred activation",
			body:     `{"email":"a@example.com","name":"Asha","plan":"Basic","message":"Plan activated: Basic"}`,
			wantText: "activate your plan",
		},
		{
			name:        "invalid JSON",
			body:        `invalid json`,
			wantDiscard: true,
		},
		{
			name:        "no recipient",
			body:        `{"name":"Asha","plan":"Pro"}`,
			wantDiscard: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(MockTransport)
			var w *bufferWriter
			if !tt.wantDiscard {
				w = expectDelivery(tr, "a@example.com")
			}

			err := NewSenderService(sl.Discard(), tr).HandlePlanChanged(context.Background(), []byte(tt.body))
			if tt.wantDiscard {
				require.ErrorIs(t, err, rabbitmq.ErrDiscard)
				tr.AssertNotCalled(t, "Connect")
				return
			}
			require.NoError(t, err)
			assert.Contains(t, w.String(), tt.wantText)
			assert.Contains(t, w.String(), "Hello, Asha!")
			tr.AssertExpectations(t)
		})
	}
}

func TestSenderService_HandlePlanExpiring(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tr := new(MockTransport)
		w := expectDelivery(tr, "b@example.com")

		err := NewSenderService(sl.Discard(), tr).HandlePlanExpiring(context.Background(),
			[]byte(`{"email":"b@example.com","name":"Bo","plan":"Premium","plan_end_date":"2025-03-11T10:00:00Z"}`))
		require.NoError(t, err)
		assert.Contains(t, w.String(), "Your Premium plan ends on 11 Mar 2025")
	})

	t.Run("smtp failure is retryable", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("GetSMTPUser").Return("noreply@reflect.app")
		tr.On("Connect").Return(nil, errors.New("connection refused")).Once()

		err := NewSenderService(sl.Discard(), tr).HandlePlanExpiring(context.Background(),
			[]byte(`{"email":"b@example.com","name":"Bo","plan":"Premium","plan_end_date":"2025-03-11T10:00:00Z"}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, rabbitmq.ErrDiscard)
		assert.Contains(t, err.Error(), "connection refused")
	})
}
