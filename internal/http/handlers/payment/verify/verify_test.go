package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/glanceread/internal/http/middlewarectx"
	"github.com/magabrotheeeer/glanceread/internal/models"
	"github.com/magabrotheeeer/glanceread/internal/paymentprovider"
	paymentservice "github.com/magabrotheeeer/glanceread/internal/services/payment"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Verify(ctx context.Context, u *models.User, in paymentservice.VerifyInput) (*models.User, error) {
	args := m.Called(ctx, u, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

const body = `{"orderCreationId":"order_1","razorpayPaymentId":"pay_1","razorpayOrderId":"order_1","razorpaySignature":"abc","planId":"monthly"}`

func TestVerifyHandler_ServeHTTP(t *testing.T) {
	user := &models.User{ID: "u-1"}
	input := paymentservice.VerifyInput{OrderID: "order_1", PaymentID: "pay_1", Signature: "abc", Plan: models.PlanMonthly}

	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "verified",
			body: body,
			setupMock: func(m *ServiceMock) {
				txID := "RZP_pay_1_monthly"
				m.On("Verify", mock.Anything, user, input).Return(&models.User{
					ID:                 "u-1",
					SubscriptionStatus: models.StatusActive,
					PlanType:           models.PlanMonthly,
					TransactionID:      &txID,
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"transaction_id":"RZP_pay_1_monthly"`,
		},
		{
			name: "bad signature",
			body: body,
			setupMock: func(m *ServiceMock) {
				m.On("Verify", mock.Anything, user, input).
					Return(nil, fmt.Errorf("services.payment.Verify: %w", paymentprovider.ErrSignatureMismatch)).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "transaction not legit",
		},
		{
			name: "order for another plan",
			body: body,
			setupMock: func(m *ServiceMock) {
				m.On("Verify", mock.Anything, user, input).
					Return(nil, fmt.Errorf("services.payment.Verify: %w: order is for annual, not monthly", paymentprovider.ErrOrderMismatch)).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "order does not match payment: order is for annual, not monthly",
		},
		{
			name:       "missing signature",
			body:       `{"orderCreationId":"order_1","razorpayPaymentId":"pay_1","planId":"monthly"}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "field RazorpaySignature is a required field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/verify", strings.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
