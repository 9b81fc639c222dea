package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

// RecordAffiliateClick добавляет запись в журнал кликов и увеличивает счётчик книги
// в одной транзакции. Возвращает новое значение счётчика.
func (s *Storage) RecordAffiliateClick(ctx context.Context, click *models.AffiliateClick) (int64, error) {
	const op = "repository.RecordAffiliateClick"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var total int64
	err = tx.QueryRowContext(ctx,
		`UPDATE books SET affiliate_clicks = affiliate_clicks + 1 WHERE id = $1 RETURNING affiliate_clicks`,
		click.BookID).Scan(&total)
	if err != nil {
		return 0, mapError(op, err)
	}

	err = tx.QueryRowContext(ctx, `INSERT INTO affiliate_clicks (book_id, user_id, source, user_agent, referrer)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, created_at`,
		click.BookID, click.UserID, click.Source, click.UserAgent, click.Referrer).Scan(&click.ID, &click.CreatedAt)
	if err != nil {
		return 0, mapError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// AffiliateAnalytics собирает статистику кликов книги; ряд по дням начинается с since.
func (s *Storage) AffiliateAnalytics(ctx context.Context, bookID int64, since time.Time) (*models.AffiliateAnalytics, error) {
	const op = "repository.AffiliateAnalytics"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	res := &models.AffiliateAnalytics{
		ClicksBySource: make([]models.SourceCount, 0),
		ClicksOverTime: make([]models.DayCount, 0),
	}

	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT user_id)
			  FROM affiliate_clicks WHERE book_id = $1`, bookID).
		Scan(&res.TotalClicks, &res.UniqueUsersCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT source, COUNT(*) AS cnt
			  FROM affiliate_clicks WHERE book_id = $1
			  GROUP BY source
			  ORDER BY cnt DESC, source`, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for rows.Next() {
		var sc models.SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res.ClicksBySource = append(res.ClicksBySource, sc)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err = s.DB.QueryContext(ctx, `SELECT TO_CHAR(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
			  FROM affiliate_clicks WHERE book_id = $1 AND created_at >= $2
			  GROUP BY day
			  ORDER BY day`, bookID, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var dc models.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res.ClicksOverTime = append(res.ClicksOverTime, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
