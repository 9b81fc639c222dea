// Package services содержит операции над подпиской пользователя, требующие хранилища:
// ленивую проверку истечения, ручную выдачу тарифа администратором и подтверждение оплаты.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/glanceread/internal/models"
	"github.com/magabrotheeeer/glanceread/internal/subscription"
)

// UserRepository определяет методы хранилища, нужные сервису подписок.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// ExpireSubscription условно переводит подписку в inactive; false означает, что строку уже изменили.
	ExpireSubscription(ctx context.Context, id string, now time.Time) (bool, error)
	// ModifySubscription применяет apply к заблокированной строке пользователя и сохраняет подписку.
	ModifySubscription(ctx context.Context, id string, apply func(*models.User) error) (*models.User, error)
	SetPaymentStatus(ctx context.Context, id, status string) error
}

// SubscriptionService реализует жизненный цикл подписки поверх хранилища.
type SubscriptionService struct {
	repo UserRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo UserRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Refresh проверяет срок подписки u и, если он истёк, сохраняет статус inactive
// до того, как запрос дойдёт до обработчика. Если строку успели изменить параллельно
// (например, начислили награду за реферала), пользователь перечитывается из хранилища.
func (s *SubscriptionService) Refresh(ctx context.Context, u *models.User) (*models.User, error) {
	const op = "services.subscription.Refresh"

	now := s.now()
	if !subscription.ExpireIfDue(u, now) {
		return u, nil
	}

	changed, err := s.repo.ExpireSubscription(ctx, u.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if changed {
		s.log.Info("subscription expired",
			slog.String("op", op),
			slog.String("user_id", u.ID),
			slog.String("plan", string(u.PlanType)))
		return u, nil
	}

	fresh, err := s.repo.GetUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return fresh, nil
}

// SetSubscription ручное изменение подписки администратором. При status=active и
// заданном plan тариф активируется с новым сроком. Активация без тарифа допустима,
// только пока текущий срок не истёк.
func (s *SubscriptionService) SetSubscription(ctx context.Context, id, status string, plan *models.PlanType) (*models.User, error) {
	const op = "services.subscription.SetSubscription"

	if status != models.StatusActive && status != models.StatusInactive {
		return nil, fmt.Errorf("%s: %w: %q", op, models.ErrInvalidStatus, status)
	}

	now := s.now()
	u, err := s.repo.ModifySubscription(ctx, id, func(u *models.User) error {
		switch {
		case status == models.StatusInactive:
			u.SubscriptionStatus = models.StatusInactive
		case plan != nil:
			return subscription.Activate(u, *plan, now)
		case u.SubscriptionExpiry != nil && !u.SubscriptionExpiry.After(now):
			return fmt.Errorf("%w: plan is required to reactivate expired subscription", models.ErrInvalidPlan)
		default:
			u.SubscriptionStatus = models.StatusActive
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ReviewPayment решение администратора по ручной оплате. verified активирует plan
// (по умолчанию monthly), rejected только меняет статус оплаты.
func (s *SubscriptionService) ReviewPayment(ctx context.Context, id, status string, plan *models.PlanType) (*models.User, error) {
	const op = "services.subscription.ReviewPayment"

	switch status {
	case models.PaymentVerified, models.PaymentRejected:
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, models.ErrInvalidStatus, status)
	}

	var (
		u   *models.User
		err error
	)
	if status == models.PaymentVerified {
		p := models.PlanMonthly
		if plan != nil {
			p = *plan
		}
		now := s.now()
		u, err = s.repo.ModifySubscription(ctx, id, func(u *models.User) error {
			return subscription.Activate(u, p, now)
		})
	} else {
		u, err = s.repo.GetUser(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.SetPaymentStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.PaymentStatus = status

	s.log.Info("manual payment reviewed",
		slog.String("op", op),
		slog.String("user_id", id),
		slog.String("status", status))
	return u, nil
}
