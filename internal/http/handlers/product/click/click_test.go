package click

import (
	"context"
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

func (m *ServiceMock) Click(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func TestClickHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		clicks     int64
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "counted", clicks: 11, wantStatus: http.StatusOK, wantBody: `"clicks":11`},
		{name: "missing product", err: fmt.Errorf("storage.IncrementProductClicks: %w", models.ErrNotFound), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("Click", mock.Anything, int64(2)).Return(tt.clicks, tt.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/products/2/click", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "2")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
