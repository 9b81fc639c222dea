// Package services реализует действия пользователя над своим аккаунтом
// (прогресс чтения, закладки, профиль, ручная оплата) и административный список пользователей.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

const screenshotsFolder = "payments"

// UserRepository определяет методы хранилища для аккаунта пользователя.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	UpsertProgress(ctx context.Context, p models.ReadingProgress) error
	AddReadTime(ctx context.Context, id string, minutes float64) error
	SubmitTransaction(ctx context.Context, id, transactionID string, screenshot *string) error
	UpdateProfile(ctx context.Context, id string, username, passwordHash *string) (*models.User, error)
	SaveBook(ctx context.Context, userID string, bookID int64) error
	UnsaveBook(ctx context.Context, userID string, bookID int64) error
}

// Hasher хеширует новый пароль.
type Hasher interface {
	Hash(password string) (string, error)
}

// ImageStore загружает скриншот оплаты.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, filename, folder string) (string, error)
}

// ProgressInput отчёт читалки о сессии чтения.
type ProgressInput struct {
	BookID      int64
	Progress    float64
	SessionTime float64 // минуты
}

// UserService реализует операции над аккаунтом.
type UserService struct {
	repo   UserRepository
	hasher Hasher
	images ImageStore
	log    *slog.Logger
	now    func() time.Time
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, hasher Hasher, images ImageStore, log *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		images: images,
		log:    log,
		now:    time.Now,
	}
}

// List возвращает всех пользователей.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	const op = "services.user.List"
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// Remove удаляет пользователя.
func (s *UserService) Remove(ctx context.Context, id string) error {
	const op = "services.user.Remove"
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.String("user_id", id))
	return nil
}

// UpdateProgress сохраняет прогресс по книге и добавляет время сессии к общему времени чтения.
func (s *UserService) UpdateProgress(ctx context.Context, userID string, in ProgressInput) error {
	const op = "services.user.UpdateProgress"

	if in.Progress < 0 || in.Progress > 100 {
		return fmt.Errorf("%s: %w: progress must be within 0..100", op, models.ErrInvalidInput)
	}
	if in.SessionTime < 0 {
		return fmt.Errorf("%s: %w: session time must not be negative", op, models.ErrInvalidInput)
	}

	err := s.repo.UpsertProgress(ctx, models.ReadingProgress{
		UserID:   userID,
		BookID:   in.BookID,
		Progress: in.Progress,
		LastRead: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if in.SessionTime > 0 {
		if err := s.repo.AddReadTime(ctx, userID, in.SessionTime); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// SubmitTransaction ставит ручную оплату на проверку. Скриншот необязателен.
func (s *UserService) SubmitTransaction(ctx context.Context, userID, transactionID string, screenshot *models.File) error {
	const op = "services.user.SubmitTransaction"

	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return fmt.Errorf("%s: %w: transaction id is required", op, models.ErrInvalidInput)
	}

	var screenshotURL *string
	if screenshot != nil && len(screenshot.Data) > 0 {
		url, err := s.images.Upload(ctx, screenshot.Data, screenshot.Name, screenshotsFolder)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		screenshotURL = &url
	}

	if err := s.repo.SubmitTransaction(ctx, userID, transactionID, screenshotURL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("manual payment submitted",
		slog.String("user_id", userID),
		slog.Bool("screenshot", screenshotURL != nil))
	return nil
}

// UpdateProfile меняет имя и/или пароль; пустые значения игнорируются.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, username, password *string) (*models.User, error) {
	const op = "services.user.UpdateProfile"

	var name, hash *string
	if username != nil && strings.TrimSpace(*username) != "" {
		v := strings.TrimSpace(*username)
		name = &v
	}
	if password != nil && *password != "" {
		h, err := s.hasher.Hash(*password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		hash = &h
	}

	u, err := s.repo.UpdateProfile(ctx, userID, name, hash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SaveBook добавляет книгу в закладки.
func (s *UserService) SaveBook(ctx context.Context, userID string, bookID int64) error {
	const op = "services.user.SaveBook"
	if err := s.repo.SaveBook(ctx, userID, bookID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UnsaveBook убирает книгу из закладок.
func (s *UserService) UnsaveBook(ctx context.Context, userID string, bookID int64) error {
	const op = "services.user.UnsaveBook"
	if err := s.repo.UnsaveBook(ctx, userID, bookID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
