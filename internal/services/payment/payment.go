// Package services реализует оплату тарифа через платёжный шлюз: создание заказа
// и подтверждение оплаты по подписи шлюза.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
	"github.com/magabrotheeeer/glanceread/internal/paymentprovider"
	"github.com/magabrotheeeer/glanceread/internal/subscription"
)

// Gateway клиент платёжного шлюза.
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, receipt string, notes map[string]string) (*paymentprovider.Order, error)
	FetchOrder(ctx context.Context, orderID string) (*paymentprovider.Order, error)
	VerifySignature(orderID, paymentID, signature string) error
}

// UserRepository определяет методы хранилища для сохранения оплаты.
type UserRepository interface {
	ModifySubscription(ctx context.Context, id string, apply func(*models.User) error) (*models.User, error)
	RecordGatewayPayment(ctx context.Context, id, transactionID string) error
}

// OrderResult данные для открытия формы оплаты на клиенте.
type OrderResult struct {
	KeyID string                 `json:"key_id"`
	Plan  models.PlanType        `json:"plan"`
	Order *paymentprovider.Order `json:"order"`
}

// VerifyInput данные, которые клиент получил от шлюза после оплаты.
// Plan только сверяется с заказом: активируется тариф, записанный в заказе.
type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
	Plan      models.PlanType
}

// PaymentService реализует оплату через шлюз.
type PaymentService struct {
	gateway Gateway
	repo    UserRepository
	log     *slog.Logger
	now     func() time.Time
}

// New создает новый экземпляр PaymentService.
func New(gateway Gateway, repo UserRepository, log *slog.Logger) *PaymentService {
	return &PaymentService{
		gateway: gateway,
		repo:    repo,
		log:     log,
		now:     time.Now,
	}
}

// CreateOrder создаёт заказ на стоимость тарифа plan.
func (s *PaymentService) CreateOrder(ctx context.Context, userID string, plan models.PlanType) (*OrderResult, error) {
	const op = "services.payment.CreateOrder"

	amount, err := paymentprovider.Price(plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrInvalidPlan, err)
	}

	receipt := fmt.Sprintf("receipt_%d", s.now().UnixMilli())
	order, err := s.gateway.CreateOrder(ctx, amount, receipt, map[string]string{
		"user_id": userID,
		"plan":    string(plan),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment order created",
		slog.String("user_id", userID),
		slog.String("order_id", order.ID),
		slog.Int64("amount", amount))
	return &OrderResult{KeyID: s.gateway.KeyID(), Plan: plan, Order: order}, nil
}

// Verify проверяет подпись шлюза и активирует пользователю u тариф, за который
// он заплатил. Тариф и владелец берутся из меток заказа на стороне шлюза, сумма
// заказа должна совпасть с ценой тарифа.
func (s *PaymentService) Verify(ctx context.Context, u *models.User, in VerifyInput) (*models.User, error) {
	const op = "services.payment.Verify"

	if err := s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature); err != nil {
		s.log.Warn("payment signature mismatch",
			slog.String("user_id", u.ID),
			slog.String("order_id", in.OrderID))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.gateway.FetchOrder(ctx, in.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plan, err := paidPlan(order, u.ID, in.Plan)
	if err != nil {
		s.log.Warn("payment does not match order",
			slog.String("user_id", u.ID),
			slog.String("order_id", in.OrderID),
			slog.String("requested_plan", string(in.Plan)),
			sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	paid, err := s.repo.ModifySubscription(ctx, u.ID, func(u *models.User) error {
		return subscription.Activate(u, plan, now)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txID := fmt.Sprintf("RZP_%s_%s", in.PaymentID, plan)
	if err := s.repo.RecordGatewayPayment(ctx, u.ID, txID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	paid.TransactionID = &txID
	paid.PaymentStatus = models.PaymentVerified

	s.log.Info("payment verified",
		slog.String("user_id", u.ID),
		slog.String("plan", string(plan)),
		slog.String("payment_id", in.PaymentID))
	return paid, nil
}

// paidPlan возвращает тариф заказа, если заказ создан для userID на полную цену
// этого тарифа и requested (если задан) с ним совпадает.
func paidPlan(order *paymentprovider.Order, userID string, requested models.PlanType) (models.PlanType, error) {
	plan := models.PlanType(order.Notes["plan"])
	price, err := paymentprovider.Price(plan)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrInvalidPlan, err)
	}

	switch {
	case order.Notes["user_id"] != userID:
		return "", fmt.Errorf("%w: order belongs to another user", paymentprovider.ErrOrderMismatch)
	case order.Amount != price:
		return "", fmt.Errorf("%w: amount %d does not match %s price %d", paymentprovider.ErrOrderMismatch, order.Amount, plan, price)
	case requested != "" && requested != plan:
		return "", fmt.Errorf("%w: order is for %s, not %s", paymentprovider.ErrOrderMismatch, plan, requested)
	}
	return plan, nil
}
