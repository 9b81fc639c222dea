package order

import (
	"context"
	"errors"
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

func (m *ServiceMock) CreateOrder(ctx context.Context, userID string, plan models.PlanType) (*paymentservice.OrderResult, error) {
	args := m.Called(ctx, userID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentservice.OrderResult), args.Error(1)
}

func TestOrderHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "annual",
			body: `{"planId":"annual"}`,
			setupMock: func(m *ServiceMock) {
				m.On("CreateOrder", mock.Anything, "u-1", models.PlanAnnual).Return(&paymentservice.OrderResult{
					KeyID: "rzp_test",
					Plan:  models.PlanAnnual,
					Order: &paymentprovider.Order{ID: "order_1", Amount: 49900, Currency: "INR"},
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"amount":49900`,
		},
		{
			name:       "unknown plan",
			body:       `{"planId":"weekly"}`,
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid plan selected",
		},
		{
			name: "gateway down",
			body: `{"planId":"monthly"}`,
			setupMock: func(m *ServiceMock) {
				m.On("CreateOrder", mock.Anything, "u-1", models.PlanMonthly).Return(nil, errors.New("razorpay: 502")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "failed to create order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/orders", strings.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{ID: "u-1"}))
			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
