// Package paymentprovider реализует клиента REST API платёжного провайдера
// (Razorpay): создание заказов и проверку подписи платежа.
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

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/banner-generator/internal/config"
	"github.com/magabrotheeeer/banner-generator/internal/models"
)

// Client клиент API провайдера. Исходящие запросы ограничены по частоте.
type Client struct {
	keyID      string
	keySecret  string
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиента.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient создаёт клиента провайдера по настройкам.
func NewClient(cfg config.Razorpay, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	c := &Client{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateOrderRequest тело запроса на создание заказа.
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// APIError ошибка, которую вернул провайдер.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("provider responded %d", e.StatusCode)
	}
	return fmt.Sprintf("provider responded %d: %s (%s)", e.StatusCode, e.Description, e.Code)
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

// CreateOrder создаёт заказ у провайдера.
func (c *Client) CreateOrder(ctx context.Context, reqParams CreateOrderRequest) (*models.PaymentOrder, error) {
	const op = "paymentprovider.CreateOrder"

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/orders", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: %w", op, &APIError{
			StatusCode:  resp.StatusCode,
			Code:        gjson.GetBytes(body, "error.code").String(),
			Description: gjson.GetBytes(body, "error.description").String(),
		})
	}

	var order models.PaymentOrder
	if err = json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%s: empty order id in response", op)
	}
	return &order, nil
}

// VerifySignature проверяет подпись платежа секретом клиента.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}
