package create

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Create(ctx context.Context, p *models.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func TestCreateProductHandler_ServeHTTP(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("created", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
			return p.Title == "Poster" && p.Link == "https://shop.example.com/p/1" && p.Category == ""
		})).Run(func(args mock.Arguments) {
			p := args.Get(1).(*models.Product)
			p.ID = 8
			p.Category = "Art"
		}).Return(nil).Once()

		body := `{"title":"Poster","image":"https://cdn.example.com/p.png","link":"https://shop.example.com/p/1","price":"499"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		New(log, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":8`)
		assert.Contains(t, rec.Body.String(), `"category":"Art"`)
		svc.AssertExpectations(t)
	})

	t.Run("link must be url", func(t *testing.T) {
		svc := new(ServiceMock)
		body := `{"title":"Poster","image":"https://cdn.example.com/p.png","link":"shop"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		New(log, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "field Link must be a valid url")
	})
}
