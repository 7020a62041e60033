// Package checkout drives one client's purchase from an open cart to a
// recorded, confirmed order across the balance and PayPal payment paths.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/backend"
	"github.com/eliotaldersonfsociety/texasstore-api/cart"
	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/eliotaldersonfsociety/texasstore-api/session"
	"github.com/eliotaldersonfsociety/texasstore-api/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	keyPurchaseDetails = "purchaseDetails"
	keyPendingPayment  = "pendingPayment"
)

type State int

const (
	Idle State = iota
	AwaitingAuth
	ReadyToPay
	Completed
)

func (s State) String() string {
	switch s {
	case AwaitingAuth:
		return "awaiting_auth"
	case ReadyToPay:
		return "ready_to_pay"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

var (
	ErrEmptyCart           = errors.New("checkout: cart is empty")
	ErrInvalidAmount       = errors.New("checkout: total must be greater than zero")
	ErrInsufficientBalance = errors.New("checkout: insufficient balance")
	ErrNotLoggedIn         = errors.New("checkout: no active session")
	ErrWrongState          = errors.New("checkout: operation not allowed in current state")
	ErrPasswordMismatch    = errors.New("checkout: passwords do not match")
	ErrInvalidRegistration = errors.New("checkout: registration data is incomplete")
	ErrUnknownOrder        = errors.New("checkout: unknown payment order")
	ErrNoPurchaseDetails   = errors.New("checkout: no purchase details")
	// ErrRecordAfterPayment means the money moved but the purchase was not
	// recorded. Retrying the same payment call records it without charging
	// again.
	ErrRecordAfterPayment = errors.New("checkout: payment taken but purchase not recorded")
)

// Backend is the part of the user API checkout needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.AuthResult, error)
	Register(ctx context.Context, data models.RegisterData) (*backend.AuthResult, error)
	Balance(ctx context.Context, token string) (decimal.Decimal, error)
	AdjustBalance(ctx context.Context, token string, delta decimal.Decimal) error
	RecordPurchase(ctx context.Context, token string, purchase models.PurchaseRequest) error
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (string, error)
	CaptureOrder(ctx context.Context, orderID string) error
}

// Notifier sends the purchase confirmation. Failures never fail checkout.
type Notifier interface {
	SendPurchaseConfirmation(to, name string, purchase models.PurchaseSnapshot) error
}

type Config struct {
	Currency string
	Notifier Notifier
}

// payment is money already committed for a set of items: a created PayPal
// order before capture, or a debit/capture awaiting its purchase record.
// It is persisted under keyPendingPayment and owned by the user who paid.
type payment struct {
	Method  models.PaymentMethod  `json:"method"`
	OrderID string                `json:"orderId,omitempty"`
	UserID  models.FlexID         `json:"userId"`
	Items   []models.PurchaseItem `json:"items"`
	Total   decimal.Decimal       `json:"total"`
	Settled bool                  `json:"settled"`
}

type Orchestrator struct {
	session  *session.Store
	cart     *cart.Store
	storage  storage.Storage
	backend  Backend
	gateway  Gateway
	notifier Notifier
	currency string
	logger   *log.Logger
	validate *validator.Validate
	now      func() time.Time

	// mu is held for the whole of each operation so a double submit cannot
	// pay twice.
	mu      sync.Mutex
	state   State
	lastErr error
	pending *payment
}

func NewOrchestrator(sess *session.Store, c *cart.Store, s storage.Storage, b Backend, g Gateway, cfg Config, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		session:  sess,
		cart:     c,
		storage:  s,
		backend:  b,
		gateway:  g,
		notifier: cfg.Notifier,
		currency: cfg.Currency,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Load restores a payment left pending by an earlier run for this client.
func (o *Orchestrator) Load(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	raw, err := o.storage.Get(ctx, keyPendingPayment)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			o.logger.Printf("checkout: failed to read pending payment: %v", err)
		}
		return
	}

	var p payment
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		o.logger.Printf("checkout: discarding malformed pending payment: %v", err)
		o.setPending(ctx, nil)
		return
	}
	o.pending = &p
}

// Reset leaves checkout after logout. An uncaptured PayPal order is
// dropped; a settled payment stays for its owner to finish recording.
func (o *Orchestrator) Reset(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = Idle
	o.lastErr = nil
	if o.pending != nil && !o.pending.Settled {
		o.setPending(ctx, nil)
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError is the most recent failure shown to the shopper, or nil.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Begin enters checkout: AwaitingAuth without a session, ReadyToPay with one.
func (o *Orchestrator) Begin(ctx context.Context) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.cart.Items()) == 0 && o.pending == nil {
		return o.state, ErrEmptyCart
	}
	o.lastErr = nil
	if o.session.LoggedIn() {
		o.state = ReadyToPay
	} else {
		o.state = AwaitingAuth
	}
	return o.state, nil
}

func (o *Orchestrator) Login(ctx context.Context, email, password string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != AwaitingAuth {
		return ErrWrongState
	}
	res, err := o.backend.Login(ctx, email, password)
	if err != nil {
		o.lastErr = err
		return err
	}
	return o.authenticated(ctx, res)
}

// Register validates everything locally before creating the account, then
// continues to payment logged in.
func (o *Orchestrator) Register(ctx context.Context, data models.RegisterData) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != AwaitingAuth {
		return ErrWrongState
	}
	if data.Password != data.Repassword {
		o.lastErr = ErrPasswordMismatch
		return ErrPasswordMismatch
	}
	if err := o.validate.Struct(data); err != nil {
		o.lastErr = fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
		return o.lastErr
	}

	res, err := o.backend.Register(ctx, data)
	if err != nil {
		o.lastErr = err
		return err
	}
	return o.authenticated(ctx, res)
}

func (o *Orchestrator) authenticated(ctx context.Context, res *backend.AuthResult) error {
	if err := o.session.SetSession(ctx, res.User, res.Token); err != nil {
		o.lastErr = err
		return err
	}
	o.lastErr = nil
	o.state = ReadyToPay
	return nil
}

// Balance always asks the backend; it is never cached.
func (o *Orchestrator) Balance(ctx context.Context) (decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	token := o.session.Token()
	if token == "" {
		return decimal.Zero, ErrNotLoggedIn
	}
	saldo, err := o.backend.Balance(ctx, token)
	if err != nil {
		return decimal.Zero, o.fail(ctx, err)
	}
	return saldo, nil
}

func (o *Orchestrator) PayWithBalance(ctx context.Context) (*models.PurchaseSnapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user, token, err := o.readyToPay(ctx)
	if err != nil {
		return nil, err
	}

	o.claimPending(ctx, user)
	if o.pending != nil && o.pending.Settled && o.pending.Method == models.PaymentBalance {
		return o.complete(ctx, user, token)
	}

	items, total, err := o.cartTotal()
	if err != nil {
		o.lastErr = err
		return nil, err
	}

	saldo, err := o.backend.Balance(ctx, token)
	if err != nil {
		return nil, o.fail(ctx, err)
	}
	if saldo.LessThan(total) {
		o.lastErr = ErrInsufficientBalance
		return nil, ErrInsufficientBalance
	}

	if err := o.backend.AdjustBalance(ctx, token, total.Neg()); err != nil {
		return nil, o.fail(ctx, err)
	}
	o.setPending(ctx, &payment{
		Method:  models.PaymentBalance,
		UserID:  user.ID,
		Items:   items,
		Total:   total,
		Settled: true,
	})
	return o.complete(ctx, user, token)
}

// CreatePayPalOrder opens a PayPal order for the current cart total.
func (o *Orchestrator) CreatePayPalOrder(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user, _, err := o.readyToPay(ctx)
	if err != nil {
		return "", err
	}
	o.claimPending(ctx, user)
	if o.pending != nil && o.pending.Settled {
		return "", ErrRecordAfterPayment
	}

	items, total, err := o.cartTotal()
	if err != nil {
		o.lastErr = err
		return "", err
	}

	orderID, err := o.gateway.CreateOrder(ctx, total, o.currency)
	if err != nil {
		o.lastErr = err
		return "", err
	}
	o.setPending(ctx, &payment{
		Method:  models.PaymentPayPal,
		OrderID: orderID,
		UserID:  user.ID,
		Items:   items,
		Total:   total,
	})
	return orderID, nil
}

// ApprovePayPal captures an approved order and records the purchase. When
// a previous call captured orderID but failed to record it, only the
// record is retried.
func (o *Orchestrator) ApprovePayPal(ctx context.Context, orderID string) (*models.PurchaseSnapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user, token, err := o.readyToPay(ctx)
	if err != nil {
		return nil, err
	}
	o.claimPending(ctx, user)
	if o.pending == nil || o.pending.Method != models.PaymentPayPal || o.pending.OrderID != orderID {
		return nil, ErrUnknownOrder
	}

	if !o.pending.Settled {
		if err := o.gateway.CaptureOrder(ctx, orderID); err != nil {
			o.logger.Printf("checkout: paypal capture of %s failed: %v", orderID, err)
			o.lastErr = err
			return nil, err
		}
		o.pending.Settled = true
		o.setPending(ctx, o.pending)
	}
	return o.complete(ctx, user, token)
}

// PayPalFailed records a client-side PayPal error. Checkout stays payable.
func (o *Orchestrator) PayPalFailed(ctx context.Context, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err == nil {
		err = errors.New("paypal payment failed")
	}
	o.logger.Printf("checkout: paypal reported an error: %v", err)
	o.lastErr = err
	if o.pending != nil && !o.pending.Settled {
		o.setPending(ctx, nil)
	}
}

// Confirmation returns the last purchase exactly once.
func (o *Orchestrator) Confirmation(ctx context.Context) (*models.PurchaseSnapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	raw, err := o.storage.Get(ctx, keyPurchaseDetails)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoPurchaseDetails
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read purchase details: %w", err)
	}
	if err := o.storage.Remove(ctx, keyPurchaseDetails); err != nil {
		return nil, fmt.Errorf("failed to consume purchase details: %w", err)
	}

	var snapshot models.PurchaseSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		o.logger.Printf("checkout: discarding malformed purchase details: %v", err)
		return nil, ErrNoPurchaseDetails
	}
	if o.state == Completed {
		o.state = Idle
	}
	return &snapshot, nil
}

func (o *Orchestrator) readyToPay(ctx context.Context) (*models.UserSession, string, error) {
	if o.state != ReadyToPay {
		return nil, "", ErrWrongState
	}
	user, token, _ := o.session.Current()
	if user == nil || token == "" {
		o.state = AwaitingAuth
		o.lastErr = ErrNotLoggedIn
		return nil, "", ErrNotLoggedIn
	}
	return user, token, nil
}

func (o *Orchestrator) cartTotal() ([]models.PurchaseItem, decimal.Decimal, error) {
	items := o.cart.Items()
	if len(items) == 0 {
		return nil, decimal.Zero, ErrEmptyCart
	}
	total := o.cart.Total()
	if !total.IsPositive() {
		return nil, decimal.Zero, ErrInvalidAmount
	}
	return models.SnapshotItems(items), total, nil
}

// complete records the settled pending payment, empties the cart and
// leaves the confirmation snapshot behind.
func (o *Orchestrator) complete(ctx context.Context, user *models.UserSession, token string) (*models.PurchaseSnapshot, error) {
	p := o.pending
	err := o.backend.RecordPurchase(ctx, token, models.PurchaseRequest{
		UserID:        p.UserID,
		Items:         p.Items,
		PaymentMethod: p.Method,
		TotalAmount:   p.Total,
	})
	if err != nil {
		o.logger.Printf("checkout: %s payment of %s settled for user %s but recording failed: %v", p.Method, p.Total, p.UserID, err)
		return nil, o.fail(ctx, fmt.Errorf("%w: %w", ErrRecordAfterPayment, err))
	}

	snapshot := models.PurchaseSnapshot{
		ID:            uuid.NewString(),
		Total:         p.Total,
		PaymentMethod: p.Method,
		Items:         p.Items,
		CreatedAt:     o.now(),
	}
	o.setPending(ctx, nil)
	o.state = Completed
	o.lastErr = nil

	// Lines added after the payment settled were not paid for and stay.
	if err := o.cart.Subtract(ctx, p.Items); err != nil {
		o.logger.Printf("checkout: failed to remove paid items from cart: %v", err)
	}
	raw, err := json.Marshal(snapshot)
	if err == nil {
		err = o.storage.Set(ctx, keyPurchaseDetails, string(raw), 0)
	}
	if err != nil {
		o.logger.Printf("checkout: failed to store purchase details: %v", err)
	}

	if o.notifier != nil {
		if err := o.notifier.SendPurchaseConfirmation(user.Email, user.Name, snapshot); err != nil {
			o.logger.Println("Error sending purchase confirmation email:", err)
		} else {
			o.logger.Println("Purchase confirmation email sent successfully to:", user.Email)
		}
	}
	return &snapshot, nil
}

// claimPending drops a pending payment left by another user of this
// browser. A settled one is logged so the unrecorded charge can be
// reconciled by hand.
func (o *Orchestrator) claimPending(ctx context.Context, user *models.UserSession) {
	p := o.pending
	if p == nil || p.UserID == user.ID {
		return
	}
	if p.Settled {
		o.logger.Printf("checkout: dropping unrecorded %s payment of %s (order %q) by user %s; now user %s",
			p.Method, p.Total, p.OrderID, p.UserID, user.ID)
	}
	o.setPending(ctx, nil)
}

// setPending replaces the pending payment in memory and in storage. A
// storage failure is logged; the in-memory copy still guards retries.
func (o *Orchestrator) setPending(ctx context.Context, p *payment) {
	o.pending = p
	if p == nil {
		if err := o.storage.Remove(ctx, keyPendingPayment); err != nil {
			o.logger.Printf("checkout: failed to drop pending payment: %v", err)
		}
		return
	}

	raw, err := json.Marshal(p)
	if err == nil {
		err = o.storage.Set(ctx, keyPendingPayment, string(raw), 0)
	}
	if err != nil {
		o.logger.Printf("checkout: failed to persist pending payment: %v", err)
	}
}

// fail records err and, when the backend rejected the token, logs the
// client out and sends checkout back to authentication. The cart is kept.
func (o *Orchestrator) fail(ctx context.Context, err error) error {
	o.lastErr = err
	if errors.Is(err, backend.ErrUnauthorized) {
		if clearErr := o.session.ClearSession(ctx); clearErr != nil {
			o.logger.Printf("checkout: failed to clear rejected session: %v", clearErr)
		}
		o.state = AwaitingAuth
	}
	return err
}
