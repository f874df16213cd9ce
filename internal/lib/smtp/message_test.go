package smtp

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	return m.Called().String(0)
}

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Mail(from string) error { return m.Called(from).Error(0) }
func (m *MockClient) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *MockClient) Quit() error            { return m.Called().Error(0) }
func (m *MockClient) Close() error           { return m.Called().Error(0) }
func (m *MockClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestCompose(t *testing.T) {
	msg := string(Compose("from@example.com", []string{"a@example.com", "b@example.com"},
		"Тариф продлён", "body text"))

	assert.Contains(t, msg, "From: from@example.com\r\n")
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nbody text"))
}

func TestSend(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(tr *MockTransport, c *MockClient, w *bufferCloser)
		wantErr error
	}{
		{
			name: "success",
			setup: func(tr *MockTransport, c *MockClient, w *bufferCloser) {
				tr.On("Connect").Return(c, nil)
				c.On("Mail", "sender@example.com").Return(nil)
				c.On("Rcpt", "user@example.com").Return(nil)
				c.On("Data").Return(w, nil)
				c.On("Quit").Return(nil)
				c.On("Close").Return(nil)
			},
		},
		{
			name: "connect error",
			setup: func(tr *MockTransport, _ *MockClient, _ *bufferCloser) {
				tr.On("Connect").Return(nil, errBoom)
			},
			wantErr: errBoom,
		},
		{
			name: "rcpt rejected",
			setup: func(tr *MockTransport, c *MockClient, _ *bufferCloser) {
				tr.On("Connect").Return(c, nil)
				c.On("Mail", "sender@example.com").Return(nil)
				c.On("Rcpt", "user@example.com").Return(errBoom)
				c.On("Close").Return(nil)
			},
			wantErr: errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(MockTransport)
			c := new(MockClient)
			w := &bufferCloser{}
			tr.On("GetSMTPUser").Return("sender@example.com")
			tt.setup(tr, c, w)

			err := Send(tr, []string{"user@example.com"}, "subject", "hello")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, w.closed)
			assert.Contains(t, w.String(), "hello")
			tr.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}
