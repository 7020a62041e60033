// Package backend talks to the user, balance and purchase API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnauthorized means the bearer token was rejected and the session
	// must be cleared.
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrMissingAuth  = errors.New("backend: token or user missing from response")
)

// APIError is any other non-2xx answer.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("backend: request failed with status %d: %s", e.Status, e.Message)
}

type AuthResult struct {
	Token string
	User  models.UserSession
}

type Client struct {
	http   *resty.Client
	logger *log.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{http: http, logger: logger}
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var body struct {
		Token string              `json:"token"`
		User  *models.UserSession `json:"user"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.LoginData{Email: email, Password: password}).
		Post("/user/login")
	if err := c.decode(resp, err, "login", &body); err != nil {
		return nil, err
	}
	if body.Token == "" || body.User == nil {
		return nil, ErrMissingAuth
	}
	return &AuthResult{Token: body.Token, User: *body.User}, nil
}

// Register creates the account and returns it already logged in.
func (c *Client) Register(ctx context.Context, data models.RegisterData) (*AuthResult, error) {
	var body struct {
		Token   string              `json:"token"`
		NewUser *models.UserSession `json:"newUser"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(data).
		Post("/user/register")
	if err := c.decode(resp, err, "register", &body); err != nil {
		return nil, err
	}
	if body.Token == "" || body.NewUser == nil {
		return nil, ErrMissingAuth
	}
	return &AuthResult{Token: body.Token, User: *body.NewUser}, nil
}

func (c *Client) Balance(ctx context.Context, token string) (decimal.Decimal, error) {
	var body struct {
		Saldo decimal.Decimal `json:"saldo"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/user/saldo")
	if err := c.decode(resp, err, "balance", &body); err != nil {
		return decimal.Zero, err
	}
	return body.Saldo, nil
}

// AdjustBalance applies a signed delta; a purchase sends the negated total.
func (c *Client) AdjustBalance(ctx context.Context, token string, delta decimal.Decimal) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]any{"total_amount": delta}).
		Post("/user/actualizar")
	return c.decode(resp, err, "adjust balance", nil)
}

func (c *Client) RecordPurchase(ctx context.Context, token string, purchase models.PurchaseRequest) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(purchase).
		Post("/user/compras")
	return c.decode(resp, err, "record purchase", nil)
}

func (c *Client) Purchases(ctx context.Context, token string) ([]models.PurchaseRecord, error) {
	var body struct {
		Purchases []models.PurchaseRecord `json:"purchases"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/purchases")
	if err := c.decode(resp, err, "purchases", &body); err != nil {
		return nil, err
	}
	if body.Purchases == nil {
		body.Purchases = []models.PurchaseRecord{}
	}
	return body.Purchases, nil
}

// Users lists every account with its balance. Admin only upstream.
func (c *Client) Users(ctx context.Context, token string) ([]models.UserBalance, error) {
	var body struct {
		Users []models.UserBalance `json:"users"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/user/recargar")
	if err := c.decode(resp, err, "users", &body); err != nil {
		return nil, err
	}
	if body.Users == nil {
		body.Users = []models.UserBalance{}
	}
	return body.Users, nil
}

func (c *Client) SetUserBalance(ctx context.Context, token, email string, saldo decimal.Decimal) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(models.UserBalance{Email: email, Saldo: saldo}).
		Put("/user/updateSaldo")
	return c.decode(resp, err, "set balance", nil)
}

// decode classifies the response and, when out is non-nil, unmarshals a
// 2xx body into it.
func (c *Client) decode(resp *resty.Response, err error, op string, out any) error {
	if err != nil {
		c.logger.Printf("backend: %s failed: %v", op, err)
		return fmt.Errorf("backend: %s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		c.logger.Printf("backend: %s rejected the token", op)
		return ErrUnauthorized
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: upstreamMessage(resp.Body())}
		c.logger.Printf("backend: %s: %v", op, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		c.logger.Printf("backend: failed to parse %s response: %v", op, err)
		return fmt.Errorf("backend: parse %s response: %w", op, err)
	}
	return nil
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
