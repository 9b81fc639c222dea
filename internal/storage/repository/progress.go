package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

// UpsertProgress сохраняет прогресс чтения книги пользователем.
func (s *Storage) UpsertProgress(ctx context.Context, p models.ReadingProgress) error {
	const op = "repository.UpsertProgress"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `INSERT INTO reading_progress (user_id, book_id, progress, last_read)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_id, book_id)
			  DO UPDATE SET progress = EXCLUDED.progress, last_read = EXCLUDED.last_read`,
		p.UserID, p.BookID, p.Progress, p.LastRead)
	if err != nil {
		return mapError(op, err)
	}
	return nil
}

// ListProgress возвращает прогресс пользователя по всем книгам, свежие первыми.
func (s *Storage) ListProgress(ctx context.Context, userID string) ([]models.ReadingProgress, error) {
	const op = "repository.ListProgress"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT user_id, book_id, progress, last_read
			  FROM reading_progress WHERE user_id = $1
			  ORDER BY last_read DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.ReadingProgress, 0)
	for rows.Next() {
		var p models.ReadingProgress
		if err := rows.Scan(&p.UserID, &p.BookID, &p.Progress, &p.LastRead); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SaveBook добавляет книгу в закладки; повторное добавление не ошибка.
func (s *Storage) SaveBook(ctx context.Context, userID string, bookID int64) error {
	const op = "repository.SaveBook"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `INSERT INTO saved_books (user_id, book_id) VALUES ($1, $2)
			  ON CONFLICT DO NOTHING`, userID, bookID)
	if err != nil {
		return mapError(op, err)
	}
	return nil
}

// UnsaveBook убирает книгу из закладок.
func (s *Storage) UnsaveBook(ctx context.Context, userID string, bookID int64) error {
	const op = "repository.UnsaveBook"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `DELETE FROM saved_books WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSavedBooks возвращает книги из закладок пользователя.
func (s *Storage) ListSavedBooks(ctx context.Context, userID string) ([]*models.Book, error) {
	const op = "repository.ListSavedBooks"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT b.id, b.title, b.author, b.category, b.cover_image,
			      b.infographic_images, b.is_premium, b.is_free, b.affiliate_link, b.affiliate_clicks,
			      b.created_at, b.updated_at
			  FROM saved_books sb
			  JOIN books b ON b.id = sb.book_id
			  WHERE sb.user_id = $1
			  ORDER BY sb.created_at DESC`, userID)
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
