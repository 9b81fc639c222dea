package login

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/glanceread/internal/models"
	authservice "github.com/magabrotheeeer/glanceread/internal/services/auth"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Login(ctx context.Context, email, password string) (*authservice.Result, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authservice.Result), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: `{"email":"reader@example.com","password":"secret123"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "reader@example.com", "secret123").
					Return(&authservice.Result{Token: "jwt-token", User: &models.User{ID: "u-1"}}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"token":"jwt-token"`,
		},
		{
			name: "wrong credentials",
			body: `{"email":"reader@example.com","password":"wrong"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "reader@example.com", "wrong").
					Return(nil, fmt.Errorf("services.auth.Login: %w", models.ErrInvalidCredentials)).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"error":"invalid credentials"`,
		},
		{
			name:       "missing password",
			body:       `{"email":"reader@example.com"}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "field Password is a required field",
		},
		{
			name:       "empty body",
			body:       ``,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
