// Package services реализует каталог книг: кешируемое чтение, выдачу страниц с учётом
// доступа зрителя и административное управление книгами с загрузкой изображений.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/glanceread/internal/entitlement"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// MaxPages наибольшее число страниц-инфографик у одной книги.
const MaxPages = 5

const (
	bookKeyFormat  = "book:%d"
	listKeyPrefix  = "books:list:"
	coversFolder   = "covers"
	infographicDir = "infographics"
)

// BookRepository определяет методы хранилища для книг.
type BookRepository interface {
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	CreateBook(ctx context.Context, b *models.Book) error
	UpdateBook(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// ImageStore загружает изображения и возвращает их публичные URL.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, filename, folder string) (string, error)
}

// Observer принимает телеметрию решений о доступе.
type Observer interface {
	ObserveEntitlement(access, tier string)
}

// BookView книга в том виде, в каком её видит конкретный зритель.
// Book.InfographicImages содержит только доступные страницы.
type BookView struct {
	Book *models.Book `json:"book"`
	entitlement.Decision
}

// BookService реализует бизнес-логику каталога.
type BookService struct {
	repo     BookRepository
	cache    Cache
	images   ImageStore
	observer Observer
	ttl      time.Duration
	log      *slog.Logger
}

// NewBookService создает новый экземпляр BookService.
func NewBookService(repo BookRepository, cache Cache, images ImageStore, observer Observer, ttl time.Duration, log *slog.Logger) *BookService {
	return &BookService{
		repo:     repo,
		cache:    cache,
		images:   images,
		observer: observer,
		ttl:      ttl,
		log:      log,
	}
}

func listKey(filter models.BookFilter) string {
	return listKeyPrefix + strings.ToLower(strings.TrimSpace(filter.Search)) + "|" + filter.Category
}

// List возвращает каталог по фильтру, по возможности из кеша. Каталог публичный,
// поэтому у премиальных книг остаются только страницы превью.
func (s *BookService) List(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	const op = "services.book.List"

	var books []*models.Book
	key := listKey(filter)
	found, err := s.cache.Get(ctx, key, &books)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return entitlement.RedactAll(books, nil), nil
	}

	books, err = s.repo.ListBooks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, books, s.ttl); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
	return entitlement.RedactAll(books, nil), nil
}

// Get возвращает книгу со всеми страницами без проверки доступа.
func (s *BookService) Get(ctx context.Context, id int64) (*models.Book, error) {
	const op = "services.book.Get"

	var book *models.Book
	key := fmt.Sprintf(bookKeyFormat, id)
	found, err := s.cache.Get(ctx, key, &book)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if found && book != nil {
		return book, nil
	}

	book, err = s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, book, s.ttl); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
	return book, nil
}

// View отдаёт книгу зрителю viewer (nil для анонимного) с учётом его доступа.
func (s *BookService) View(ctx context.Context, id int64, viewer *models.User) (*BookView, error) {
	const op = "services.book.View"

	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	visible, d := entitlement.Redact(book, viewer)
	s.observer.ObserveEntitlement(string(d.Access), d.Tier)
	return &BookView{Book: visible, Decision: d}, nil
}

// Create загружает обложку и страницы параллельно и сохраняет книгу.
// Ошибка любой загрузки отменяет создание; уже загруженные объекты не удаляются.
func (s *BookService) Create(ctx context.Context, in models.BookInput) (*models.Book, error) {
	const op = "services.book.Create"

	if len(in.Cover.Data) == 0 {
		return nil, fmt.Errorf("%s: %w: cover image is required", op, models.ErrInvalidInput)
	}
	if len(in.Pages) == 0 || len(in.Pages) > MaxPages {
		return nil, fmt.Errorf("%s: %w: between 1 and %d infographic images are required", op, models.ErrInvalidInput, MaxPages)
	}

	var cover string
	pages := make([]string, len(in.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.images.Upload(gctx, in.Cover.Data, in.Cover.Name, coversFolder)
		cover = url
		return err
	})
	for i, page := range in.Pages {
		i, page := i, page
		g.Go(func() error {
			url, err := s.images.Upload(gctx, page.Data, page.Name, infographicDir)
			pages[i] = url
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	book := &models.Book{
		Title:             in.Title,
		Author:            in.Author,
		Category:          in.Category,
		CoverImage:        cover,
		InfographicImages: pages,
		IsPremium:         in.IsPremium,
		IsFree:            in.IsFree,
		AffiliateLink:     in.AffiliateLink,
	}
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)

	s.log.Info("book created", slog.Int64("book_id", book.ID), slog.Int("pages", len(pages)))
	return book, nil
}

// Update применяет частичное обновление и сбрасывает кеш книги и списков.
func (s *BookService) Update(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error) {
	const op = "services.book.Update"

	book, err := s.repo.UpdateBook(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, fmt.Sprintf(bookKeyFormat, id))
	return book, nil
}

// Remove удаляет книгу.
func (s *BookService) Remove(ctx context.Context, id int64) error {
	const op = "services.book.Remove"

	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, fmt.Sprintf(bookKeyFormat, id))
	return nil
}

func (s *BookService) invalidate(ctx context.Context, keys ...string) {
	if len(keys) > 0 {
		if err := s.cache.Invalidate(ctx, keys...); err != nil {
			s.log.Warn("failed to remove from cache", slog.Any("keys", keys), sl.Err(err))
		}
	}
	if err := s.cache.InvalidatePrefix(ctx, listKeyPrefix); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("prefix", listKeyPrefix), sl.Err(err))
	}
}
