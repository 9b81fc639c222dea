package remove

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Remove(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRemoveHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		mockErr    error
		callMock   bool
		wantStatus int
		wantBody   string
	}{
		{name: "success", id: "9", callMock: true, wantStatus: http.StatusOK, wantBody: `"deleted":9`},
		{name: "not found", id: "9", callMock: true, mockErr: fmt.Errorf("storage.DeleteBook: %w", models.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "storage failure", id: "9", callMock: true, mockErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantBody: "failed to remove book"},
		{name: "invalid id", id: "x", wantStatus: http.StatusBadRequest, wantBody: "invalid id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callMock {
				svc.On("Remove", mock.Anything, int64(9)).Return(tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
