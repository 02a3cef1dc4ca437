package port

import (
	"context"

	"github.com/rl1809/retail-pos/internal/core/domain"
)

type ItemRepository interface {
	// ListItems returns the catalog ordered by name.
	ListItems(ctx context.Context) ([]domain.Item, error)

	GetItem(ctx context.Context, id string) (*domain.Item, error)

	CreateItem(ctx context.Context, item domain.Item) error

	UpdateItem(ctx context.Context, item domain.Item) error

	DeleteItem(ctx context.Context, id string) error
}

type OrderRepository interface {
	// CreateOrder persists the order and decrements every line's stock in
	// a single transaction; a line whose stock would go negative fails the
	// whole commit with domain.ErrInsufficientStock.
	CreateOrder(ctx context.Context, order domain.Order) error

	// ListOrders returns orders newest first.
	ListOrders(ctx context.Context) ([]domain.Order, error)

	ListOrdersByCashier(ctx context.Context, cashierID string) ([]domain.Order, error)
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, acct domain.Account) error

	GetAccount(ctx context.Context, id string) (*domain.Account, error)

	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	ListAccountsByRole(ctx context.Context, role domain.Role) ([]domain.Account, error)

	DeleteAccount(ctx context.Context, id string) error
}
