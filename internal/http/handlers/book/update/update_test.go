package update

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Update(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestUpdateHandler_ServeHTTP(t *testing.T) {
	title := "Deep Work 2"
	free := true

	tests := []struct {
		name       string
		id         string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "partial update",
			id:   "3",
			body: `{"title":"Deep Work 2","is_free":true}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, int64(3), models.BookPatch{Title: &title, IsFree: &free}).
					Return(&models.Book{ID: 3, Title: title, IsFree: true}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"title":"Deep Work 2"`,
		},
		{
			name:       "bad affiliate link",
			id:         "3",
			body:       `{"affiliate_link":"not a url"}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "field AffiliateLink must be a valid url",
		},
		{
			name: "missing book",
			id:   "4",
			body: `{"title":"Deep Work 2"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, int64(4), models.BookPatch{Title: &title}).
					Return(nil, fmt.Errorf("storage.UpdateBook: %w", models.ErrNotFound)).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad id",
			id:         "-1",
			body:       `{}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/books/"+tt.id, strings.NewReader(tt.body))
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
