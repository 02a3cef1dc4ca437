package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rl1809/retail-pos/internal/core/cart"
	"github.com/rl1809/retail-pos/internal/core/domain"
)

func checkoutFixture() (*CheckoutService, *mockItemRepo, *mockOrderRepo, *mockCache) {
	items := newMockItemRepo(
		domain.Item{ID: "coffee", Name: "Coffee", Price: decimal.RequireFromString("10.00"), Stock: 10},
		domain.Item{ID: "tea", Name: "Tea", Price: decimal.RequireFromString("5.50"), Stock: 5},
	)
	orders := newMockOrderRepo(items)
	cache := newMockCache()
	return NewCheckoutService(items, orders, cache), items, orders, cache
}

func cashierSession() *domain.Session {
	return &domain.Session{UserID: "cashier-1", Username: "ana", Role: domain.RoleCashier}
}

func buildCart(t *testing.T, svc *CheckoutService, cashierID string) {
	t.Helper()
	ctx := context.Background()
	if err := svc.AddItem(ctx, cashierID, "coffee"); err != nil {
		t.Fatalf("add coffee: %v", err)
	}
	if err := svc.AddItem(ctx, cashierID, "coffee"); err != nil {
		t.Fatalf("add coffee again: %v", err)
	}
	if err := svc.AddItem(ctx, cashierID, "tea"); err != nil {
		t.Fatalf("add tea: %v", err)
	}
	if err := svc.BeginCheckout(cashierID); err != nil {
		t.Fatalf("begin checkout: %v", err)
	}
}

func TestCommit_Success(t *testing.T) {
	svc, items, orders, cache := checkoutFixture()
	sess := cashierSession()
	buildCart(t, svc, sess.UserID)

	order, err := svc.Commit(context.Background(), sess, domain.PaymentCash, decimal.RequireFromString("30.00"))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if !order.Total.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("expected total 25.50, got %s", order.Total)
	}
	if !order.Change.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("expected change 4.50, got %s", order.Change)
	}
	if order.CashierName != "ana" {
		t.Errorf("expected cashier name ana, got %s", order.CashierName)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Lines))
	}

	if stock := items.stockOf("coffee"); stock != 8 {
		t.Errorf("expected coffee stock 8, got %d", stock)
	}
	if stock := items.stockOf("tea"); stock != 4 {
		t.Errorf("expected tea stock 4, got %d", stock)
	}
	if len(orders.orders) != 1 {
		t.Errorf("expected 1 persisted order, got %d", len(orders.orders))
	}
	if got := svc.Cart(sess.UserID); got.State != cart.StateEmpty || len(got.Lines) != 0 {
		t.Errorf("expected cart reset to empty, got state %s with %d lines", got.State, len(got.Lines))
	}
	if cache.invalidated == 0 {
		t.Error("expected catalog cache invalidation after commit")
	}
}

func TestCommit_InsufficientPayment(t *testing.T) {
	svc, items, orders, _ := checkoutFixture()
	sess := cashierSession()
	buildCart(t, svc, sess.UserID)

	_, err := svc.Commit(context.Background(), sess, domain.PaymentCash, decimal.RequireFromString("25.49"))
	if !errors.Is(err, domain.ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}

	if len(orders.orders) != 0 {
		t.Error("no order must be created on insufficient payment")
	}
	if stock := items.stockOf("coffee"); stock != 10 {
		t.Errorf("stock must be untouched, got %d", stock)
	}
	if got := svc.Cart(sess.UserID); got.State != cart.StateReadyForPayment {
		t.Errorf("expected cart still ready for payment, got %s", got.State)
	}
}

func TestCommit_CollaboratorFailureKeepsCart(t *testing.T) {
	svc, _, orders, _ := checkoutFixture()
	sess := cashierSession()
	buildCart(t, svc, sess.UserID)

	orders.failWith = errors.New("dial tcp: connection refused")
	_, err := svc.Commit(context.Background(), sess, domain.PaymentGCash, decimal.RequireFromString("30.00"))
	if err == nil {
		t.Fatal("expected commit to fail")
	}

	got := svc.Cart(sess.UserID)
	if got.State != cart.StateFailed {
		t.Errorf("expected Failed episode, got %s", got.State)
	}
	if len(got.Lines) != 2 {
		t.Errorf("cart must be kept for retry, got %d lines", len(got.Lines))
	}

	// The collaborator recovers; the same episode retries cleanly.
	orders.failWith = nil
	order, err := svc.Commit(context.Background(), sess, domain.PaymentGCash, decimal.RequireFromString("30.00"))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !order.Change.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("expected change 4.50 on retry, got %s", order.Change)
	}
}

func TestCommit_StaleCommitKeyDoesNotEatCart(t *testing.T) {
	svc, items, orders, cache := checkoutFixture()
	sess := cashierSession()
	buildCart(t, svc, sess.UserID)

	// The order insert fails and so does releasing the idempotency key,
	// leaving the key set for an episode that never persisted.
	orders.failWith = errors.New("dial tcp: connection refused")
	cache.failClear = errors.New("dial tcp: connection refused")
	if _, err := svc.Commit(context.Background(), sess, domain.PaymentCash, decimal.RequireFromString("30.00")); err == nil {
		t.Fatal("expected first commit to fail")
	}

	got := svc.Cart(sess.UserID)
	if got.State != cart.StateFailed || len(got.Lines) != 2 {
		t.Fatalf("expected Failed episode with cart kept, got state %s with %d lines", got.State, len(got.Lines))
	}

	// The collaborator recovers. The retry runs under the same episode and
	// finds its own key still set; it must sell, not drop the cart.
	orders.failWith = nil
	order, err := svc.Commit(context.Background(), sess, domain.PaymentCash, decimal.RequireFromString("30.00"))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !order.Change.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("expected change 4.50 on retry, got %s", order.Change)
	}
	if len(orders.orders) != 1 {
		t.Errorf("expected exactly 1 persisted order, got %d", len(orders.orders))
	}
	if stock := items.stockOf("coffee"); stock != 8 {
		t.Errorf("expected coffee stock 8 after retry, got %d", stock)
	}
	if got := svc.Cart(sess.UserID); got.State != cart.StateEmpty {
		t.Errorf("expected cart reset after successful retry, got %s", got.State)
	}
}

func TestCommit_LastUnitRace(t *testing.T) {
	items := newMockItemRepo(
		domain.Item{ID: "coffee", Name: "Coffee", Price: decimal.RequireFromString("10.00"), Stock: 1},
	)
	svc := NewCheckoutService(items, newMockOrderRepo(items), newMockCache())
	ctx := context.Background()

	first := &domain.Session{UserID: "c1", Username: "ana", Role: domain.RoleCashier}
	second := &domain.Session{UserID: "c2", Username: "ben", Role: domain.RoleCashier}

	// Both cashiers hold the last unit in their carts.
	for _, sess := range []*domain.Session{first, second} {
		if err := svc.AddItem(ctx, sess.UserID, "coffee"); err != nil {
			t.Fatalf("add for %s: %v", sess.Username, err)
		}
		if err := svc.BeginCheckout(sess.UserID); err != nil {
			t.Fatalf("checkout for %s: %v", sess.Username, err)
		}
	}

	if _, err := svc.Commit(ctx, first, domain.PaymentCash, decimal.RequireFromString("10.00")); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	// The race resolves at the database: the loser fails, explicitly.
	_, err := svc.Commit(ctx, second, domain.PaymentCash, decimal.RequireFromString("10.00"))
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock for the loser, got %v", err)
	}
	if got := svc.Cart(second.UserID); got.State != cart.StateFailed {
		t.Errorf("loser's episode should be Failed, got %s", got.State)
	}
}

func TestCommit_InvalidPaymentMethod(t *testing.T) {
	svc, _, orders, _ := checkoutFixture()
	sess := cashierSession()
	buildCart(t, svc, sess.UserID)

	_, err := svc.Commit(context.Background(), sess, domain.PaymentMethod("CHECK"), decimal.RequireFromString("100.00"))
	if err == nil {
		t.Fatal("expected error for unknown payment method")
	}
	if len(orders.orders) != 0 {
		t.Error("no order must be created")
	}
}

func TestCommit_EmptyCart(t *testing.T) {
	svc, _, _, _ := checkoutFixture()
	sess := cashierSession()

	_, err := svc.Commit(context.Background(), sess, domain.PaymentCash, decimal.RequireFromString("10.00"))
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestAddItem_UnknownItem(t *testing.T) {
	svc, _, _, _ := checkoutFixture()

	err := svc.AddItem(context.Background(), "cashier-1", "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
