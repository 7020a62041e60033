// Package cart is the per-client line-item ledger with quantity bounds
// and durable persistence.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/eliotaldersonfsociety/texasstore-api/storage"
	"github.com/shopspring/decimal"
)

const keyCart = "cart"

var (
	ErrInvalidPrice = errors.New("cart: product has no valid price")
	ErrMaxQuantity  = errors.New("cart: maximum quantity reached")
)

type NoticeKind int

const (
	Added NoticeKind = iota
	Removed
	Cleared
	MaxQuantity
	InvalidPrice
)

func (k NoticeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Cleared:
		return "cleared"
	case MaxQuantity:
		return "max_quantity"
	case InvalidPrice:
		return "invalid_price"
	}
	return "unknown"
}

// Notice is what subscribers see for every cart event.
type Notice struct {
	Kind    NoticeKind
	Message string
	ItemID  int64
}

func (n Notice) Success() bool {
	return n.Kind == Added || n.Kind == Removed || n.Kind == Cleared
}

type Store struct {
	storage storage.Storage
	logger  *log.Logger

	mu          sync.Mutex
	items       []models.CartItem
	open        bool
	subscribers []func(Notice)
}

func NewStore(s storage.Storage, logger *log.Logger) *Store {
	return &Store{storage: s, logger: logger}
}

// Subscribe registers fn for every notice. fn runs after the store lock is
// released.
func (s *Store) Subscribe(fn func(Notice)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Load replaces the ledger with the persisted one. Malformed data is
// dropped and the cart starts empty.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	raw, err := s.storage.Get(ctx, keyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("cart: failed to read persisted cart: %v", err)
		}
		return
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Printf("cart: discarding malformed persisted cart: %v", err)
		if err := s.storage.Remove(ctx, keyCart); err != nil {
			s.logger.Printf("cart: failed to drop malformed cart: %v", err)
		}
		return
	}

	for _, it := range items {
		if !it.Price.IsPositive() || s.indexOf(it.ID) >= 0 {
			continue
		}
		it.Quantity = models.ClampQuantity(it.Quantity)
		s.items = append(s.items, it)
	}
}

func (s *Store) AddItem(ctx context.Context, item models.CartItem) error {
	if !item.Price.IsPositive() {
		s.emit(Notice{Kind: InvalidPrice, Message: "Product has no valid price", ItemID: item.ID})
		return ErrInvalidPrice
	}

	s.mu.Lock()
	next := s.snapshot()
	if i := s.indexOf(item.ID); i >= 0 {
		current := next[i].Quantity
		merged := models.ClampQuantity(current + models.ClampQuantity(item.Quantity))
		if merged == current {
			s.mu.Unlock()
			s.emit(Notice{Kind: MaxQuantity, Message: "Maximum quantity reached", ItemID: item.ID})
			return ErrMaxQuantity
		}
		next[i].Quantity = merged
	} else {
		item.Quantity = models.ClampQuantity(item.Quantity)
		next = append(next, item)
	}

	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.open = true
	s.mu.Unlock()

	s.emit(Notice{Kind: Added, Message: "Product added to cart", ItemID: item.ID})
	return nil
}

// RemoveItem succeeds whether or not id was in the cart.
func (s *Store) RemoveItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	next := make([]models.CartItem, 0, len(s.items))
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.emit(Notice{Kind: Removed, Message: "Product removed from cart", ItemID: id})
	return nil
}

func (s *Store) IncreaseQuantity(ctx context.Context, id int64) error {
	return s.adjust(ctx, id, func(q int) int { return q + 1 })
}

// DecreaseQuantity stops at 1; RemoveItem is the only way out of the cart.
func (s *Store) DecreaseQuantity(ctx context.Context, id int64) error {
	return s.adjust(ctx, id, func(q int) int { return q - 1 })
}

func (s *Store) SetQuantity(ctx context.Context, id int64, n int) error {
	return s.adjust(ctx, id, func(int) int { return n })
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.storage.Remove(ctx, keyCart); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.items = nil
	s.mu.Unlock()

	s.emit(Notice{Kind: Cleared, Message: "Cart emptied"})
	return nil
}

// Subtract takes paid quantities out of the cart. Whatever was added after
// the payment stays.
func (s *Store) Subtract(ctx context.Context, paid []models.PurchaseItem) error {
	s.mu.Lock()
	next := make([]models.CartItem, 0, len(s.items))
	for _, it := range s.items {
		for _, p := range paid {
			if p.ID == it.ID {
				it.Quantity -= p.Quantity
			}
		}
		if it.Quantity > 0 {
			next = append(next, it)
		}
	}

	var err error
	if len(next) == 0 {
		if err = s.storage.Remove(ctx, keyCart); err == nil {
			s.items = nil
		} else {
			err = fmt.Errorf("failed to clear cart: %w", err)
		}
	} else {
		err = s.commit(ctx, next)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if len(next) == 0 {
		s.emit(Notice{Kind: Cleared, Message: "Cart emptied"})
	} else {
		s.emit(Notice{Kind: Removed, Message: "Paid items removed from cart"})
	}
	return nil
}

func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	s.open = open
	s.mu.Unlock()
}

func (s *Store) adjust(ctx context.Context, id int64, fn func(int) int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	next := s.snapshot()
	next[i].Quantity = models.ClampQuantity(fn(next[i].Quantity))
	return s.commit(ctx, next)
}

// commit persists next and only then makes it current. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []models.CartItem) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, keyCart, string(raw), 0); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	s.items = next
	return nil
}

func (s *Store) snapshot() []models.CartItem {
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) indexOf(id int64) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) emit(n Notice) {
	s.mu.Lock()
	subs := append([]func(Notice){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}
