package models

import "time"

// WelcomeMessage сообщение в очередь писем о регистрации нового читателя.
type WelcomeMessage struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	ReferralCode string    `json:"referral_code"`
	TrialExpiry  time.Time `json:"trial_expiry"`
}
