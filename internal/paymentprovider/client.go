// Package paymentprovider клиент платёжного шлюза Razorpay:
// создание заказа и проверка подписи оплаты.
package paymentprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/magabrotheeeer/glanceread/internal/config"
)

// Client обращается к REST API Razorpay с basic-авторизацией key_id:key_secret.
type Client struct {
	keyID      string
	keySecret  string
	currency   string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Razorpay.
func NewClient(cfg config.Razorpay) *Client {
	return &Client{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		currency:   cfg.Currency,
		apiURL:     cfg.APIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// KeyID публичный ключ, который отдаётся фронтенду для открытия формы оплаты.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateOrder создаёт заказ на сумму amount в валюте клиента.
func (c *Client) CreateOrder(ctx context.Context, amount int64, receipt string, notes map[string]string) (*Order, error) {
	const op = "paymentprovider.CreateOrder"

	req, err := c.newRequest(ctx, http.MethodPost, "/orders", CreateOrderRequest{
		Amount:   amount,
		Currency: c.currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := c.doOrder(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// FetchOrder возвращает заказ шлюза по его идентификатору вместе с метками.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	const op = "paymentprovider.FetchOrder"

	req, err := c.newRequest(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := c.doOrder(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (c *Client) doOrder(req *http.Request) (*Order, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, apiErr.Error.Description)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifySignature проверяет подпись оплаты: HMAC-SHA256 в hex от "orderID|paymentID".
func (c *Client) VerifySignature(orderID, paymentID, signature string) error {
	expected := Sign(c.keySecret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign вычисляет подпись оплаты ключом secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
