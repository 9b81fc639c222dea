package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

const bookColumns = `id, title, author, category, cover_image, infographic_images, is_premium,
	is_free, affiliate_link, affiliate_clicks, created_at, updated_at`

// categoryAll значение фильтра, отключающее отбор по категории.
const categoryAll = "All"

func (s *Storage) scanBook(row rowScanner) (*models.Book, error) {
	var (
		b     models.Book
		pages []string
		link  sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.CoverImage,
		s.types.SQLScanner(&pages), &b.IsPremium, &b.IsFree, &link, &b.AffiliateClicks,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if pages == nil {
		pages = []string{}
	}
	b.InfographicImages = pages
	b.AffiliateLink = nullString(link)
	return &b, nil
}

// ListBooks возвращает каталог с фильтром по подстроке названия и категории, новые первыми.
func (s *Storage) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	const op = "repository.ListBooks"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if filter.Category != "" && filter.Category != categoryAll {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + bookColumns + ` FROM books`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Book, 0)
	for rows.Next() {
		b, err := s.scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetBook возвращает книгу по ID.
func (s *Storage) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	const op = "repository.GetBook"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	b, err := s.scanBook(s.DB.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return b, nil
}

// CreateBook сохраняет книгу и заполняет её ID и метки времени.
func (s *Storage) CreateBook(ctx context.Context, b *models.Book) error {
	const op = "repository.CreateBook"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO books (title, author, category, cover_image, infographic_images,
			      is_premium, is_free, affiliate_link)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id, created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		b.Title, b.Author, b.Category, b.CoverImage, b.InfographicImages,
		b.IsPremium, b.IsFree, b.AffiliateLink).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapError(op, err)
	}
	return nil
}

// UpdateBook применяет частичное обновление и возвращает книгу после изменений.
// Пустая строка в AffiliateLink удаляет ссылку.
func (s *Storage) UpdateBook(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error) {
	const op = "repository.UpdateBook"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE books
			  SET title = COALESCE($2, title),
			      author = COALESCE($3, author),
			      category = COALESCE($4, category),
			      affiliate_link = CASE WHEN $5::text IS NULL THEN affiliate_link
			                            ELSE NULLIF($5::text, '') END,
			      is_premium = COALESCE($6, is_premium),
			      is_free = COALESCE($7, is_free),
			      updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + bookColumns
	b, err := s.scanBook(s.DB.QueryRowContext(ctx, query, id,
		patch.Title, patch.Author, patch.Category, patch.AffiliateLink, patch.IsPremium, patch.IsFree))
	if err != nil {
		return nil, mapError(op, err)
	}
	return b, nil
}

// DeleteBook удаляет книгу вместе с её кликами, прогрессом и закладками.
func (s *Storage) DeleteBook(ctx context.Context, id int64) error {
	const op = "repository.DeleteBook"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}
