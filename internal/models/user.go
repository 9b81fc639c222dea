// Package models содержит доменные структуры сервиса: пользователя с полями подписки,
// книгу, клики по партнёрским ссылкам, прогресс чтения и товары витрины.
// Структуры используются в бизнес‑логике, хранилище и при формировании JSON‑ответов.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Статусы подписки.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// PlanType тип тарифного плана пользователя.
type PlanType string

// Возможные тарифные планы.
const (
	PlanFree           PlanType = "free"
	PlanTrial          PlanType = "trial"
	PlanMonthly        PlanType = "monthly"
	PlanAnnual         PlanType = "annual"
	PlanLifetime       PlanType = "lifetime"
	PlanReferralReward PlanType = "referral_reward"
)

// Статусы ручной проверки оплаты.
const (
	PaymentNone     = "none"
	PaymentPending  = "pending"
	PaymentVerified = "verified"
	PaymentRejected = "rejected"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Role               string     `json:"role"`
	SubscriptionStatus string     `json:"subscription_status"`
	PlanType           PlanType   `json:"plan_type"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry"`
	IsTrialUsed        bool       `json:"is_trial_used"`
	ReferralCode       string     `json:"referral_code"`
	ReferredBy         *string    `json:"referred_by"`
	ReferralCount      int        `json:"referral_count"`
	TotalReadTime      float64    `json:"total_read_time"` // минуты
	TransactionID      *string    `json:"transaction_id"`
	PaymentScreenshot  *string    `json:"payment_screenshot"`
	PaymentStatus      string     `json:"payment_status"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsActive сообщает, активна ли подписка по сохранённому статусу.
func (u *User) IsActive() bool {
	return u != nil && u.SubscriptionStatus == StatusActive
}

// ReadingProgress прогресс чтения конкретной книги пользователем.
type ReadingProgress struct {
	UserID   string    `json:"user_id"`
	BookID   int64     `json:"book_id"`
	Progress float64   `json:"progress"`
	LastRead time.Time `json:"last_read"`
}

// Profile ответ на запрос текущего пользователя: данные аккаунта,
// сохранённые книги и прогресс чтения.
type Profile struct {
	User       *User             `json:"user"`
	SavedBooks []*Book           `json:"saved_books"`
	Progress   []ReadingProgress `json:"reading_progress"`
}
