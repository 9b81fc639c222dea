package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

const userColumns = `id, username, email, password_hash, role, subscription_status, plan_type,
	subscription_expiry, is_trial_used, referral_code, referred_by, referral_count,
	total_read_time, transaction_id, payment_screenshot, payment_status, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                                         models.User
		plan                                      string
		expiry                                    sql.NullTime
		referredBy, transactionID, screenshotPath sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.SubscriptionStatus, &plan, &expiry, &u.IsTrialUsed, &u.ReferralCode,
		&referredBy, &u.ReferralCount, &u.TotalReadTime, &transactionID,
		&screenshotPath, &u.PaymentStatus, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.PlanType = models.PlanType(plan)
	if expiry.Valid {
		u.SubscriptionExpiry = &expiry.Time
	}
	u.ReferredBy = nullString(referredBy)
	u.TransactionID = nullString(transactionID)
	u.PaymentScreenshot = nullString(screenshotPath)
	return &u, nil
}

// CreateUser сохраняет нового пользователя и заполняет его ID и метки времени.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	const op = "repository.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO users (username, email, password_hash, role, subscription_status,
			      plan_type, subscription_expiry, is_trial_used, referral_code, referred_by, payment_status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING id, created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.Role, u.SubscriptionStatus,
		string(u.PlanType), u.SubscriptionExpiry, u.IsTrialUsed, u.ReferralCode, u.ReferredBy,
		u.PaymentStatus).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapError(op, err)
	}
	return nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "repository.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "repository.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ModifySubscription в одной транзакции блокирует пользователя id, применяет к нему
// apply и сохраняет поля подписки. Ошибка apply откатывает транзакцию и возвращается
// без изменений, параллельные награды за рефералов не перезаписываются.
func (s *Storage) ModifySubscription(ctx context.Context, id string, apply func(*models.User) error) (*models.User, error) {
	const op = "repository.ModifySubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	u, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(op, err)
	}

	if err := apply(u); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE users
			  SET subscription_status = $2, plan_type = $3, subscription_expiry = $4,
			      is_trial_used = $5, updated_at = NOW()
			  WHERE id = $1`,
		u.ID, u.SubscriptionStatus, string(u.PlanType), u.SubscriptionExpiry, u.IsTrialUsed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ExpireSubscription переводит подписку в inactive, если она всё ещё активна
// и срок истёк к моменту now. Возвращает false, если строку уже изменили.
func (s *Storage) ExpireSubscription(ctx context.Context, id string, now time.Time) (bool, error) {
	const op = "repository.ExpireSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	query := `UPDATE users
			  SET subscription_status = 'inactive', updated_at = NOW()
			  WHERE id = $1 AND subscription_status = 'active' AND subscription_expiry < $2`
	res, err := s.DB.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// RewardReferrer в одной транзакции блокирует пользователя с кодом code,
// применяет к нему apply и сохраняет счётчик и поля подписки.
func (s *Storage) RewardReferrer(ctx context.Context, code string, apply func(*models.User)) (*models.User, error) {
	const op = "repository.RewardReferrer"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	u, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1 FOR UPDATE`, code))
	if err != nil {
		return nil, mapError(op, err)
	}

	apply(u)

	_, err = tx.ExecContext(ctx, `UPDATE users
			  SET referral_count = $2, subscription_status = $3, plan_type = $4,
			      subscription_expiry = $5, updated_at = NOW()
			  WHERE id = $1`,
		u.ID, u.ReferralCount, u.SubscriptionStatus, string(u.PlanType), u.SubscriptionExpiry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SubmitTransaction сохраняет данные ручной оплаты и ставит её на проверку.
func (s *Storage) SubmitTransaction(ctx context.Context, id, transactionID string, screenshot *string) error {
	const op = "repository.SubmitTransaction"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET transaction_id = $2, payment_screenshot = COALESCE($3, payment_screenshot),
			      payment_status = 'pending', updated_at = NOW()
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, transactionID, screenshot)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

// SetPaymentStatus меняет статус ручной оплаты.
func (s *Storage) SetPaymentStatus(ctx context.Context, id, status string) error {
	const op = "repository.SetPaymentStatus"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET payment_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

// RecordGatewayPayment сохраняет идентификатор оплаты через шлюз как подтверждённую.
func (s *Storage) RecordGatewayPayment(ctx context.Context, id, transactionID string) error {
	const op = "repository.RecordGatewayPayment"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users
			  SET transaction_id = $2, payment_status = 'verified', updated_at = NOW()
			  WHERE id = $1`, id, transactionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

// UpdateProfile меняет имя и хеш пароля; nil-поля не трогаются.
func (s *Storage) UpdateProfile(ctx context.Context, id string, username, passwordHash *string) (*models.User, error) {
	const op = "repository.UpdateProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users
			  SET username = COALESCE($2, username), password_hash = COALESCE($3, password_hash),
			      updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id, username, passwordHash))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// AddReadTime прибавляет minutes к общему времени чтения.
func (s *Storage) AddReadTime(ctx context.Context, id string, minutes float64) error {
	const op = "repository.AddReadTime"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET total_read_time = total_read_time + $2, updated_at = NOW() WHERE id = $1`,
		id, minutes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

// DeleteUser удаляет пользователя вместе с прогрессом и закладками.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "repository.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}
