package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/retail-pos/internal/core/cart"
	"github.com/rl1809/retail-pos/internal/core/domain"
	"github.com/rl1809/retail-pos/internal/port"
)

// CheckoutService owns one cart per cashier and drives the commit: an
// idempotency key, then the order insert and stock decrement in a single
// database transaction. A collaborator failure lands the episode in Failed
// with the cart intact so the cashier can retry.
type CheckoutService struct {
	mu     sync.Mutex
	carts  map[string]*cart.Cart
	items  port.ItemRepository
	orders port.OrderRepository
	cache  port.CacheRepository
}

func NewCheckoutService(items port.ItemRepository, orders port.OrderRepository, cache port.CacheRepository) *CheckoutService {
	return &CheckoutService{
		carts:  make(map[string]*cart.Cart),
		items:  items,
		orders: orders,
		cache:  cache,
	}
}

func (s *CheckoutService) cartFor(cashierID string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cashierID]
	if !ok {
		c = cart.New()
		s.carts[cashierID] = c
	}
	return c
}

// CartView is what the handler serializes back to the cashier.
type CartView struct {
	State cart.State      `json:"state"`
	Lines []cart.Line     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *CheckoutService) Cart(cashierID string) CartView {
	c := s.cartFor(cashierID)
	return CartView{State: c.State(), Lines: c.Lines(), Total: c.Total()}
}

// AddItem re-fetches the item so the advisory stock ceiling is as fresh as
// the last successful read.
func (s *CheckoutService) AddItem(ctx context.Context, cashierID, itemID string) error {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	return s.cartFor(cashierID).AddItem(*item)
}

func (s *CheckoutService) AdjustQuantity(cashierID, itemID string, delta int) error {
	return s.cartFor(cashierID).AdjustQuantity(itemID, delta)
}

func (s *CheckoutService) RemoveItem(cashierID, itemID string) error {
	return s.cartFor(cashierID).RemoveItem(itemID)
}

func (s *CheckoutService) BeginCheckout(cashierID string) error {
	return s.cartFor(cashierID).BeginCheckout()
}

func (s *CheckoutService) CancelCheckout(cashierID string) error {
	return s.cartFor(cashierID).CancelCheckout()
}

// Commit validates payment, snapshots the cart into an immutable order and
// persists it. Order insert and stock decrement share one transaction, so
// two cashiers racing on the last unit resolve at the database: the loser's
// commit fails with ErrInsufficientStock and their cart is kept for retry.
func (s *CheckoutService) Commit(ctx context.Context, sess *domain.Session, method domain.PaymentMethod, tendered decimal.Decimal) (*domain.Order, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidItem, method)
	}

	c := s.cartFor(sess.UserID)
	lines, total, err := c.BeginCommit(tendered)
	if err != nil {
		return nil, err
	}

	commitKey := "commit:" + c.EpisodeID()
	ok, err := s.cache.SetCommitKey(ctx, commitKey)
	if err != nil {
		c.FinishCommit(err)
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		// A committed episode always resets the cart and its episode id,
		// so a key that is already set can only be left over from a failed
		// attempt of this same episode whose release did not go through.
		// The key is ours; carry on under it.
		log.Printf("reusing commit key %s from a failed attempt", commitKey)
	}

	order := domain.Order{
		ID:             uuid.NewString(),
		Lines:          lines,
		Total:          total,
		Payment:        method,
		AmountTendered: tendered,
		Change:         tendered.Sub(total),
		CashierID:      sess.UserID,
		CashierName:    sess.Username,
		CreatedAt:      time.Now(),
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if clearErr := s.cache.ClearCommitKey(ctx, commitKey); clearErr != nil {
			log.Printf("failed to release commit key %s: %v", commitKey, clearErr)
		}
		c.FinishCommit(err)
		return nil, fmt.Errorf("commit order: %w", err)
	}

	c.FinishCommit(nil)

	// Stock changed under the catalog cache.
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		log.Printf("catalog cache invalidation after commit failed: %v", err)
	}
	return &order, nil
}
