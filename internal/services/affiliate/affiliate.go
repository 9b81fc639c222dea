// Package services учитывает клики по партнёрским ссылкам книг и строит по ним аналитику.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

// AnalyticsWindow глубина выборки для графика кликов по дням.
const AnalyticsWindow = 30 * 24 * time.Hour

// ClickRepository определяет методы хранилища для журнала кликов.
type ClickRepository interface {
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	RecordAffiliateClick(ctx context.Context, click *models.AffiliateClick) (int64, error)
	AffiliateAnalytics(ctx context.Context, bookID int64, since time.Time) (*models.AffiliateAnalytics, error)
}

// Observer принимает телеметрию кликов.
type Observer interface {
	ObserveAffiliateClick(source string)
}

// ClickInput данные о клике, собранные обработчиком из запроса.
type ClickInput struct {
	BookID    int64
	UserID    *string
	Source    string
	UserAgent string
	Referrer  string
}

// ClickResult ответ на зарегистрированный клик.
type ClickResult struct {
	AffiliateLink string `json:"affiliate_link"`
	Clicks        int64  `json:"affiliate_clicks"`
}

// AffiliateService реализует учёт кликов.
type AffiliateService struct {
	repo     ClickRepository
	observer Observer
	log      *slog.Logger
	now      func() time.Time
}

// NewAffiliateService создает новый экземпляр AffiliateService.
func NewAffiliateService(repo ClickRepository, observer Observer, log *slog.Logger) *AffiliateService {
	return &AffiliateService{
		repo:     repo,
		observer: observer,
		log:      log,
		now:      time.Now,
	}
}

// TrackClick записывает клик и возвращает ссылку для перехода.
// Книга без партнёрской ссылки считается отсутствующей.
func (s *AffiliateService) TrackClick(ctx context.Context, in ClickInput) (*ClickResult, error) {
	const op = "services.affiliate.TrackClick"

	book, err := s.repo.GetBook(ctx, in.BookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if book.AffiliateLink == nil || *book.AffiliateLink == "" {
		return nil, fmt.Errorf("%s: %w: book has no affiliate link", op, models.ErrNotFound)
	}

	click := &models.AffiliateClick{
		BookID:    in.BookID,
		UserID:    in.UserID,
		Source:    models.NormalizeSource(in.Source),
		UserAgent: in.UserAgent,
		Referrer:  in.Referrer,
	}
	total, err := s.repo.RecordAffiliateClick(ctx, click)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.observer.ObserveAffiliateClick(click.Source)

	return &ClickResult{AffiliateLink: *book.AffiliateLink, Clicks: total}, nil
}

// Analytics агрегирует клики по книге за последние AnalyticsWindow.
func (s *AffiliateService) Analytics(ctx context.Context, bookID int64) (*models.AffiliateAnalytics, error) {
	const op = "services.affiliate.Analytics"

	if _, err := s.repo.GetBook(ctx, bookID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.repo.AffiliateAnalytics(ctx, bookID, s.now().Add(-AnalyticsWindow))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
