// Package paypal creates and captures PayPal checkout orders (REST v2).
package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency = "USD"
	statusCompleted = "COMPLETED"
)

var (
	ErrCredentials  = errors.New("paypal: client id and secret are not set")
	ErrNotCompleted = errors.New("paypal: order was not completed")
)

type Client struct {
	http     *resty.Client
	clientID string
	secret   string
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewClient(baseURL, clientID, secret string, timeout time.Duration, logger *log.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{http: http, clientID: clientID, secret: secret, logger: logger, now: time.Now}
}

// accessToken returns a cached OAuth token, fetching a new one shortly
// before the old one expires.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}
	if c.clientID == "" || c.secret == "" {
		return "", ErrCredentials
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.secret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("paypal token request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("paypal token request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var response struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if response.AccessToken == "" {
		return "", fmt.Errorf("token not found in response: %s", string(resp.Body()))
	}

	c.token = response.AccessToken
	c.expires = c.now().Add(time.Duration(response.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

// CreateOrder opens a CAPTURE order for amount and returns its id.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (string, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	order := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"amount": map[string]string{
				"currency_code": currency,
				"value":         amount.StringFixed(2),
			},
		}},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(order).
		Post("/v2/checkout/orders")
	if err != nil {
		return "", fmt.Errorf("paypal create order: %w", err)
	}
	if resp.IsError() {
		c.logger.Printf("paypal: create order failed: status %d, response: %s", resp.StatusCode(), resp.Body())
		return "", fmt.Errorf("paypal create order failed with status %d", resp.StatusCode())
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &created); err != nil || created.ID == "" {
		return "", fmt.Errorf("paypal: incomplete create order response: %s", string(resp.Body()))
	}
	return created.ID, nil
}

// CaptureOrder captures an approved order. Anything but COMPLETED is an
// error wrapping ErrNotCompleted.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", orderID).
		Post("/v2/checkout/orders/{id}/capture")
	if err != nil {
		return fmt.Errorf("paypal capture order: %w", err)
	}
	if resp.IsError() {
		c.logger.Printf("paypal: capture of %s failed: status %d, response: %s", orderID, resp.StatusCode(), resp.Body())
		return fmt.Errorf("paypal capture failed with status %d", resp.StatusCode())
	}

	var captured struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &captured); err != nil {
		return fmt.Errorf("failed to parse capture response: %w", err)
	}
	if captured.Status != statusCompleted {
		return fmt.Errorf("%w: status %q", ErrNotCompleted, captured.Status)
	}
	return nil
}
