package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ExpireSubscription(ctx context.Context, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

// ModifySubscription применяет apply к возвращённому пользователю, как это делает транзакция в хранилище.
func (m *UserRepoMock) ModifySubscription(ctx context.Context, id string, apply func(*models.User) error) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	u := args.Get(0).(*models.User)
	if err := apply(u); err != nil {
		return nil, err
	}
	return u, args.Error(1)
}

func (m *UserRepoMock) SetPaymentStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

func newService(repo *UserRepoMock) *SubscriptionService {
	s := NewSubscriptionService(repo, newNoopLogger())
	s.now = func() time.Time { return testNow }
	return s
}

func TestSubscriptionService_Refresh(t *testing.T) {
	t.Run("expired yesterday is persisted as inactive", func(t *testing.T) {
		repo := new(UserRepoMock)
		u := &models.User{ID: "u-1", SubscriptionStatus: models.StatusActive, PlanType: models.PlanTrial,
			SubscriptionExpiry: ptrTime(testNow.Add(-24 * time.Hour))}
		repo.On("ExpireSubscription", mock.Anything, "u-1", testNow).Return(true, nil).Once()

		got, err := newService(repo).Refresh(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInactive, got.SubscriptionStatus)
		repo.AssertExpectations(t)
	})

	t.Run("valid subscription untouched", func(t *testing.T) {
		repo := new(UserRepoMock)
		u := &models.User{ID: "u-1", SubscriptionStatus: models.StatusActive,
			SubscriptionExpiry: ptrTime(testNow.Add(time.Hour))}

		got, err := newService(repo).Refresh(context.Background(), u)
		require.NoError(t, err)
		assert.Same(t, u, got)
		assert.Equal(t, models.StatusActive, got.SubscriptionStatus)
		repo.AssertNotCalled(t, "ExpireSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent update reloads user", func(t *testing.T) {
		repo := new(UserRepoMock)
		u := &models.User{ID: "u-1", SubscriptionStatus: models.StatusActive,
			SubscriptionExpiry: ptrTime(testNow.Add(-time.Minute))}
		fresh := &models.User{ID: "u-1", SubscriptionStatus: models.StatusActive,
			SubscriptionExpiry: ptrTime(testNow.Add(30 * 24 * time.Hour))}
		repo.On("ExpireSubscription", mock.Anything, "u-1", testNow).Return(false, nil).Once()
		repo.On("GetUser", mock.Anything, "u-1").Return(fresh, nil).Once()

		got, err := newService(repo).Refresh(context.Background(), u)
		require.NoError(t, err)
		assert.Same(t, fresh, got)
		repo.AssertExpectations(t)
	})

	t.Run("storage error", func(t *testing.T) {
		repo := new(UserRepoMock)
		u := &models.User{ID: "u-1", SubscriptionStatus: models.StatusActive,
			SubscriptionExpiry: ptrTime(testNow.Add(-time.Minute))}
		repo.On("ExpireSubscription", mock.Anything, "u-1", testNow).Return(false, errors.New("db down")).Once()

		_, err := newService(repo).Refresh(context.Background(), u)
		assert.Error(t, err)
	})
}

func TestSubscriptionService_SetSubscription(t *testing.T) {
	annual := models.PlanAnnual
	free := models.PlanFree

	tests := []struct {
		name       string
		user       *models.User
		status     string
		plan       *models.PlanType
		wantErr    error
		wantStatus string
		wantExpiry *time.Time
	}{
		{
			name:       "activate with plan",
			user:       &models.User{ID: "u-1", SubscriptionStatus: models.StatusInactive},
			status:     models.StatusActive,
			plan:       &annual,
			wantStatus: models.StatusActive,
			wantExpiry: ptrTime(testNow.AddDate(0, 0, 365)),
		},
		{
			name:       "deactivate keeps expiry",
			user:       &models.User{ID: "u-1", SubscriptionStatus: models.StatusActive, SubscriptionExpiry: ptrTime(testNow.Add(time.Hour))},
			status:     models.StatusInactive,
			wantStatus: models.StatusInactive,
			wantExpiry: ptrTime(testNow.Add(time.Hour)),
		},
		{
			name:       "reactivate within expiry",
			user:       &models.User{ID: "u-1", SubscriptionStatus: models.StatusInactive, SubscriptionExpiry: ptrTime(testNow.Add(time.Hour))},
			status:     models.StatusActive,
			wantStatus: models.StatusActive,
			wantExpiry: ptrTime(testNow.Add(time.Hour)),
		},
		{
			name:    "reactivate expired without plan",
			user:    &models.User{ID: "u-1", SubscriptionStatus: models.StatusInactive, SubscriptionExpiry: ptrTime(testNow.Add(-time.Hour))},
			status:  models.StatusActive,
			wantErr: models.ErrInvalidPlan,
		},
		{
			name:    "free plan is not activatable",
			user:    &models.User{ID: "u-1"},
			status:  models.StatusActive,
			plan:    &free,
			wantErr: models.ErrInvalidPlan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			repo.On("ModifySubscription", mock.Anything, "u-1").Return(tt.user, nil).Once()

			got, err := newService(repo).SetSubscription(context.Background(), "u-1", tt.status, tt.plan)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.SubscriptionStatus)
			assert.Equal(t, tt.wantExpiry, got.SubscriptionExpiry)
			repo.AssertExpectations(t)
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		repo := new(UserRepoMock)
		_, err := newService(repo).SetSubscription(context.Background(), "u-1", "paused", nil)
		assert.ErrorIs(t, err, models.ErrInvalidStatus)
		repo.AssertNotCalled(t, "ModifySubscription", mock.Anything, mock.Anything)
	})

	t.Run("status change keeps concurrent referral reward", func(t *testing.T) {
		repo := new(UserRepoMock)
		// после чтения пользователя middleware реферал продлил срок, в хранилище уже новая строка
		locked := &models.User{ID: "u-1", SubscriptionStatus: models.StatusActive, PlanType: models.PlanReferralReward,
			SubscriptionExpiry: ptrTime(testNow.AddDate(0, 0, 7)), ReferralCount: 1}
		repo.On("ModifySubscription", mock.Anything, "u-1").Return(locked, nil).Once()

		got, err := newService(repo).SetSubscription(context.Background(), "u-1", models.StatusActive, nil)
		require.NoError(t, err)
		assert.Equal(t, models.PlanReferralReward, got.PlanType)
		assert.Equal(t, testNow.AddDate(0, 0, 7), *got.SubscriptionExpiry)
		assert.Equal(t, 1, got.ReferralCount)
		repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("user not found", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("ModifySubscription", mock.Anything, "u-1").Return(nil, models.ErrNotFound).Once()
		_, err := newService(repo).SetSubscription(context.Background(), "u-1", models.StatusActive, nil)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestSubscriptionService_ReviewPayment(t *testing.T) {
	t.Run("verified activates default monthly plan", func(t *testing.T) {
		repo := new(UserRepoMock)
		u := &models.User{ID: "u-1", SubscriptionStatus: models.StatusInactive, PaymentStatus: models.PaymentPending}
		repo.On("ModifySubscription", mock.Anything, "u-1").Return(u, nil).Once()
		repo.On("SetPaymentStatus", mock.Anything, "u-1", models.PaymentVerified).Return(nil).Once()

		got, err := newService(repo).ReviewPayment(context.Background(), "u-1", models.PaymentVerified, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, got.SubscriptionStatus)
		assert.Equal(t, models.PlanMonthly, got.PlanType)
		assert.Equal(t, testNow.AddDate(0, 0, 30), *got.SubscriptionExpiry)
		assert.Equal(t, models.PaymentVerified, got.PaymentStatus)
		repo.AssertExpectations(t)
	})

	t.Run("rejected only changes payment status", func(t *testing.T) {
		repo := new(UserRepoMock)
		u := &models.User{ID: "u-1", SubscriptionStatus: models.StatusInactive, PaymentStatus: models.PaymentPending}
		repo.On("GetUser", mock.Anything, "u-1").Return(u, nil).Once()
		repo.On("SetPaymentStatus", mock.Anything, "u-1", models.PaymentRejected).Return(nil).Once()

		got, err := newService(repo).ReviewPayment(context.Background(), "u-1", models.PaymentRejected, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInactive, got.SubscriptionStatus)
		assert.Equal(t, models.PaymentRejected, got.PaymentStatus)
		repo.AssertNotCalled(t, "ModifySubscription", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("pending is not a review decision", func(t *testing.T) {
		repo := new(UserRepoMock)
		_, err := newService(repo).ReviewPayment(context.Background(), "u-1", models.PaymentPending, nil)
		assert.ErrorIs(t, err, models.ErrInvalidStatus)
	})
}
