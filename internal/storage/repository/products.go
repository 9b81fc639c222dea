package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

const productColumns = `id, title, image, link, price, description, category, clicks, created_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Title, &p.Image, &p.Link, &p.Price, &p.Description,
		&p.Category, &p.Clicks, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts возвращает товары витрины, новые первыми.
func (s *Storage) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "repository.ListProducts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateProduct сохраняет товар и заполняет его ID.
func (s *Storage) CreateProduct(ctx context.Context, p *models.Product) error {
	const op = "repository.CreateProduct"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.DB.QueryRowContext(ctx, `INSERT INTO products (title, image, link, price, description, category)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id, clicks, created_at`,
		p.Title, p.Image, p.Link, p.Price, p.Description, p.Category).Scan(&p.ID, &p.Clicks, &p.CreatedAt)
	if err != nil {
		return mapError(op, err)
	}
	return nil
}

// UpdateProduct применяет частичное обновление товара.
func (s *Storage) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	const op = "repository.UpdateProduct"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE products
			  SET title = COALESCE($2, title), image = COALESCE($3, image), link = COALESCE($4, link),
			      price = COALESCE($5, price), description = COALESCE($6, description),
			      category = COALESCE($7, category)
			  WHERE id = $1
			  RETURNING ` + productColumns
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, id,
		patch.Title, patch.Image, patch.Link, patch.Price, patch.Description, patch.Category))
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}

// DeleteProduct удаляет товар.
func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	const op = "repository.DeleteProduct"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

// IncrementProductClicks увеличивает счётчик кликов товара и возвращает новое значение.
func (s *Storage) IncrementProductClicks(ctx context.Context, id int64) (int64, error) {
	const op = "repository.IncrementProductClicks"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var clicks int64
	err := s.DB.QueryRowContext(ctx,
		`UPDATE products SET clicks = clicks + 1 WHERE id = $1 RETURNING clicks`, id).Scan(&clicks)
	if err != nil {
		return 0, mapError(op, err)
	}
	return clicks, nil
}
