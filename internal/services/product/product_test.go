package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListProducts(ctx context.Context) ([]*models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *ProductRepoMock) CreateProduct(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepoMock) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductRepoMock) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ProductRepoMock) IncrementProductClicks(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type counter struct{ n int }

func (c *counter) ObserveProductClick() { c.n++ }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestProductService_CreateDefaultsCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     string
	}{
		{name: "empty category", category: "", want: "Art"},
		{name: "blank category", category: "  ", want: "Art"},
		{name: "explicit category", category: "Stationery", want: "Stationery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(ProductRepoMock)
			repo.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
				return p.Category == tt.want
			})).Return(nil).Once()

			svc := NewProductService(repo, &counter{}, newNoopLogger())
			require.NoError(t, svc.Create(context.Background(), &models.Product{Title: "Poster", Category: tt.category}))
			repo.AssertExpectations(t)
		})
	}
}

func TestProductService_Click(t *testing.T) {
	repo := new(ProductRepoMock)
	obs := &counter{}
	svc := NewProductService(repo, obs, newNoopLogger())

	repo.On("IncrementProductClicks", mock.Anything, int64(4)).Return(int64(10), nil).Once()
	repo.On("IncrementProductClicks", mock.Anything, int64(5)).Return(int64(0), models.ErrNotFound).Once()

	clicks, err := svc.Click(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(10), clicks)
	assert.Equal(t, 1, obs.n)

	_, err = svc.Click(context.Background(), 5)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 1, obs.n)
}

func TestProductService_UpdateRemoveList(t *testing.T) {
	repo := new(ProductRepoMock)
	svc := NewProductService(repo, &counter{}, newNoopLogger())
	price := "$20"
	patch := models.ProductPatch{Price: &price}

	repo.On("ListProducts", mock.Anything).Return([]*models.Product{{ID: 1}}, nil).Once()
	repo.On("UpdateProduct", mock.Anything, int64(1), patch).Return(&models.Product{ID: 1, Price: price}, nil).Once()
	repo.On("DeleteProduct", mock.Anything, int64(2)).Return(models.ErrNotFound).Once()

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	p, err := svc.Update(context.Background(), 1, patch)
	require.NoError(t, err)
	assert.Equal(t, price, p.Price)

	assert.ErrorIs(t, svc.Remove(context.Background(), 2), models.ErrNotFound)
	repo.AssertExpectations(t)
}
