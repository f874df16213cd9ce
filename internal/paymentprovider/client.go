// Package paymentprovider клиент платёжного шлюза Razorpay: создание заказов
// и проверка подписи подтверждения платежа.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/config"
)

// APIError ответ шлюза с кодом, отличным от 2xx.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: status %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// Client клиент Orders API.
type Client struct {
	keyID      string
	keySecret  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиента по настройкам шлюза.
func NewClient(cfg config.Razorpay) *Client {
	timeout := cfg.RazorpayTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		keyID:      cfg.RazorpayKeyID,
		keySecret:  cfg.RazorpayKeySecret,
		apiURL:     strings.TrimRight(cfg.RazorpayAPIURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// KeyID публичный идентификатор ключа, нужен фронтенду для открытия checkout.
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

// CreateOrder создаёт заказ на оплату.
func (c *Client) CreateOrder(ctx context.Context, reqParams CreateOrderRequest) (*Order, error) {
	const op = "paymentprovider.CreateOrder"

	req, err := c.newRequest(ctx, http.MethodPost, "/orders", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &body) == nil {
			apiErr.Code = body.Error.Code
			apiErr.Description = body.Error.Description
		}
		return nil, fmt.Errorf("%s: %w", op, apiErr)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &order, nil
}
