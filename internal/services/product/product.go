// Package services реализует витрину партнёрских товаров.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

// DefaultCategory категория товара, если администратор её не указал.
const DefaultCategory = "Art"

// ProductRepository определяет методы хранилища для товаров.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	IncrementProductClicks(ctx context.Context, id int64) (int64, error)
}

// Observer принимает телеметрию кликов по товарам.
type Observer interface {
	ObserveProductClick()
}

// ProductService реализует бизнес-логику витрины.
type ProductService struct {
	repo     ProductRepository
	observer Observer
	log      *slog.Logger
}

// NewProductService создает новый экземпляр ProductService.
func NewProductService(repo ProductRepository, observer Observer, log *slog.Logger) *ProductService {
	return &ProductService{repo: repo, observer: observer, log: log}
}

// List возвращает все товары.
func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	const op = "services.product.List"
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// Create добавляет товар.
func (s *ProductService) Create(ctx context.Context, p *models.Product) error {
	const op = "services.product.Create"
	if strings.TrimSpace(p.Category) == "" {
		p.Category = DefaultCategory
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("product created", slog.Int64("product_id", p.ID))
	return nil
}

// Update применяет частичное обновление товара.
func (s *ProductService) Update(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	const op = "services.product.Update"
	p, err := s.repo.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Remove удаляет товар.
func (s *ProductService) Remove(ctx context.Context, id int64) error {
	const op = "services.product.Remove"
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Click увеличивает счётчик переходов и возвращает новое значение.
func (s *ProductService) Click(ctx context.Context, id int64) (int64, error) {
	const op = "services.product.Click"
	clicks, err := s.repo.IncrementProductClicks(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.observer.ObserveProductClick()
	return clicks, nil
}
