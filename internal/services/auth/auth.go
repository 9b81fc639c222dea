// Package services содержит логику регистрации и входа читателей:
// выдачу пробного периода, начисление награды пригласившему и выпуск JWT.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/glanceread/internal/entitlement"
	"github.com/magabrotheeeer/glanceread/internal/lib/jwt"
	"github.com/magabrotheeeer/glanceread/internal/lib/password"
	"github.com/magabrotheeeer/glanceread/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
	"github.com/magabrotheeeer/glanceread/internal/subscription"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	RewardReferrer(ctx context.Context, code string, apply func(*models.User)) (*models.User, error)
	ListSavedBooks(ctx context.Context, userID string) ([]*models.Book, error)
	ListProgress(ctx context.Context, userID string) ([]models.ReadingProgress, error)
}

// Hasher хеширует и сверяет пароли.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Notifier публикует сообщения в очередь писем.
type Notifier interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// RegisterInput данные формы регистрации.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	ReferralCode string
}

// Result токен и пользователь, возвращаемые после регистрации и входа.
type Result struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService отвечает за регистрацию, вход и профиль текущего пользователя.
type AuthService struct {
	users    UserRepository
	hasher   Hasher
	jwtMaker jwt.Maker
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
	newCode  func() string
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, hasher Hasher, jwtMaker jwt.Maker, notifier Notifier, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		newCode:  newReferralCode,
	}
}

// referralCodeAttempts сколько раз Register генерирует новый код, если он уже занят.
const referralCodeAttempts = 3

// referralCodeConstraint имя уникального ограничения на users.referral_code.
const referralCodeConstraint = "users_referral_code_key"

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NormalizeReferralCode приводит введённый код к виду, в котором он хранится.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Register создаёт пользователя с пробным периодом и, если указан код приглашения,
// продлевает подписку пригласившему. Вставка пользователя и награда пригласившему
// выполняются отдельными записями: ошибка награды не отменяет регистрацию.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	const op = "services.auth.Register"
	log := s.log.With(slog.String("op", op))

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user := &models.User{
		Username:      strings.TrimSpace(in.Username),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:  hashed,
		Role:          models.RoleUser,
		ReferralCode:  s.newCode(),
		PaymentStatus: models.PaymentNone,
	}
	subscription.GrantTrial(user, now)

	code := NormalizeReferralCode(in.ReferralCode)
	if code != "" {
		user.ReferredBy = &code
	}

	if err := s.createUser(ctx, log, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if code != "" {
		s.rewardReferrer(ctx, log, code, now)
	}

	msg := models.WelcomeMessage{
		Email:        user.Email,
		Username:     user.Username,
		ReferralCode: user.ReferralCode,
		TrialExpiry:  *user.SubscriptionExpiry,
	}
	if err := s.notifier.Publish(ctx, rabbitmq.RoutingWelcome, msg); err != nil {
		log.Error("failed to publish welcome message", slog.String("user_id", user.ID), sl.Err(err))
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Result{Token: token, User: user}, nil
}

// createUser сохраняет пользователя, перегенерируя код приглашения при совпадении
// с уже существующим. Занятый email возвращается сразу.
func (s *AuthService) createUser(ctx context.Context, log *slog.Logger, user *models.User) error {
	var err error
	for attempt := 1; attempt <= referralCodeAttempts; attempt++ {
		err = s.users.CreateUser(ctx, user)
		if !isReferralCodeConflict(err) {
			return err
		}
		log.Warn("referral code collision", slog.String("code", user.ReferralCode), slog.Int("attempt", attempt))
		user.ReferralCode = s.newCode()
	}
	return err
}

func isReferralCodeConflict(err error) bool {
	return errors.Is(err, models.ErrAlreadyExists) && strings.Contains(err.Error(), referralCodeConstraint)
}

func (s *AuthService) rewardReferrer(ctx context.Context, log *slog.Logger, code string, now time.Time) {
	referrer, err := s.users.RewardReferrer(ctx, code, func(u *models.User) {
		subscription.ApplyReferralReward(u, now)
	})
	switch {
	case errors.Is(err, models.ErrNotFound):
		log.Info("unknown referral code ignored", slog.String("code", code))
	case err != nil:
		log.Error("failed to reward referrer", slog.String("code", code), sl.Err(err))
	default:
		log.Info("referrer rewarded",
			slog.String("referrer_id", referrer.ID),
			slog.Int("referral_count", referrer.ReferralCount))
	}
}

// Login проверяет пароль и выпускает JWT. Неизвестный email и неверный пароль
// неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Result, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.hasher.Compare(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Result{Token: token, User: user}, nil
}

// Profile собирает профиль пользователя u вместе с закладками и прогрессом.
// Страницы сохранённых книг отдаются в пределах доступа u.
func (s *AuthService) Profile(ctx context.Context, u *models.User) (*models.Profile, error) {
	const op = "services.auth.Profile"

	saved, err := s.users.ListSavedBooks(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	progress, err := s.users.ListProgress(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Profile{User: u, SavedBooks: entitlement.RedactAll(saved, u), Progress: progress}, nil
}
