// Package subscription содержит чистые правила жизненного цикла подписки:
// выдачу пробного периода, активацию тарифа, награду за реферала и ленивую
// проверку истечения срока. Функции не обращаются к хранилищу; сохранение
// изменений выполняет слой сервисов.
package subscription

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

const (
	// TrialPeriod длительность пробного периода при регистрации.
	TrialPeriod = 7 * 24 * time.Hour
	// ReferralReward продление подписки пригласившему за каждого нового пользователя.
	ReferralReward = 30 * 24 * time.Hour
	// lifetimeYears горизонт для бессрочного тарифа; expiry никогда не nil.
	lifetimeYears = 100
)

// Expiry возвращает дату окончания тарифа plan, начиная с момента from.
func Expiry(plan models.PlanType, from time.Time) (time.Time, error) {
	switch plan {
	case models.PlanTrial:
		return from.Add(TrialPeriod), nil
	case models.PlanMonthly:
		return from.AddDate(0, 0, 30), nil
	case models.PlanAnnual:
		return from.AddDate(0, 0, 365), nil
	case models.PlanLifetime:
		return from.AddDate(lifetimeYears, 0, 0), nil
	case models.PlanReferralReward:
		return from.Add(ReferralReward), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidPlan, plan)
	}
}

// GrantTrial выдаёт новому пользователю пробный период.
// Повторная выдача не поддерживается, поэтому флаг IsTrialUsed ставится сразу.
func GrantTrial(u *models.User, now time.Time) {
	expiry := now.Add(TrialPeriod)
	u.SubscriptionStatus = models.StatusActive
	u.PlanType = models.PlanTrial
	u.SubscriptionExpiry = &expiry
	u.IsTrialUsed = true
}

// Activate включает тариф plan с новым сроком, отсчитанным от now.
func Activate(u *models.User, plan models.PlanType, now time.Time) error {
	expiry, err := Expiry(plan, now)
	if err != nil {
		return err
	}
	u.SubscriptionStatus = models.StatusActive
	u.PlanType = plan
	u.SubscriptionExpiry = &expiry
	return nil
}

// ApplyReferralReward начисляет пригласившему награду за нового пользователя.
// Срок продлевается от текущей даты окончания, только если она ещё в будущем,
// иначе от now: награды не накладываются на уже истёкший срок.
func ApplyReferralReward(referrer *models.User, now time.Time) {
	base := now
	if referrer.SubscriptionExpiry != nil && referrer.SubscriptionExpiry.After(now) {
		base = *referrer.SubscriptionExpiry
	}
	expiry := base.Add(ReferralReward)

	referrer.ReferralCount++
	referrer.SubscriptionExpiry = &expiry
	if referrer.SubscriptionStatus != models.StatusActive {
		referrer.SubscriptionStatus = models.StatusActive
		referrer.PlanType = models.PlanReferralReward
	}
}

// ExpireIfDue переводит активную подписку с прошедшей датой окончания в inactive.
// Возвращает true, если статус изменился и его нужно сохранить.
func ExpireIfDue(u *models.User, now time.Time) bool {
	if u == nil || u.SubscriptionStatus != models.StatusActive {
		return false
	}
	if u.SubscriptionExpiry == nil || !u.SubscriptionExpiry.Before(now) {
		return false
	}
	u.SubscriptionStatus = models.StatusInactive
	return true
}

// ParsePlan проверяет название тарифа, доступного для покупки или ручной выдачи.
func ParsePlan(s string) (models.PlanType, error) {
	switch p := models.PlanType(s); p {
	case models.PlanTrial, models.PlanMonthly, models.PlanAnnual, models.PlanLifetime, models.PlanReferralReward:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrInvalidPlan, s)
	}
}
