package service

import (
	"context"

	"github.com/rl1809/retail-pos/internal/core/domain"
	"github.com/rl1809/retail-pos/internal/port"
)

// LedgerService is a pure access path to persisted orders. Orders are
// append-only; creation happens inside the checkout commit, so all that is
// exposed here is listing.
type LedgerService struct {
	orders port.OrderRepository
}

func NewLedgerService(orders port.OrderRepository) *LedgerService {
	return &LedgerService{orders: orders}
}

func (s *LedgerService) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx)
}

func (s *LedgerService) ListByCashier(ctx context.Context, cashierID string) ([]domain.Order, error) {
	return s.orders.ListOrdersByCashier(ctx, cashierID)
}
