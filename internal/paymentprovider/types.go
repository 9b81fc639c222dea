package paymentprovider

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

// ErrSignatureMismatch подпись платежа не совпала с ожидаемой.
var ErrSignatureMismatch = errors.New("transaction not legit")

// ErrOrderMismatch оплаченный заказ не соответствует пользователю или тарифу.
var ErrOrderMismatch = errors.New("order does not match payment")

// ErrUnpurchasablePlan тариф нельзя купить через платёжный шлюз.
var ErrUnpurchasablePlan = errors.New("plan is not purchasable")

// Цены тарифов в пайсах (1/100 рупии).
var planPrices = map[models.PlanType]int64{
	models.PlanMonthly:  4900,
	models.PlanAnnual:   49900,
	models.PlanLifetime: 149900,
}

// Price возвращает стоимость тарифа plan в минимальных единицах валюты.
func Price(plan models.PlanType) (int64, error) {
	amount, ok := planPrices[plan]
	if !ok {
		return 0, ErrUnpurchasablePlan
	}
	return amount, nil
}

// CreateOrderRequest тело запроса POST /orders.
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Notes произвольные метки заказа. Пустые метки шлюз присылает массивом [].
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("[]")) {
		*n = Notes{}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*n = m
	return nil
}

// Order заказ, созданный платёжным шлюзом.
type Order struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	Notes    Notes  `json:"notes,omitempty"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}
