package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/retail-pos/internal/core/domain"
)

// In-memory fakes for the storage ports. The order repo mirrors the real
// adapter's transactional behavior: stock is decremented as part of
// CreateOrder and an over-sell fails the whole call.

type mockItemRepo struct {
	mu      sync.Mutex
	items   map[string]domain.Item
	listErr error
}

func newMockItemRepo(items ...domain.Item) *mockItemRepo {
	m := &mockItemRepo{items: make(map[string]domain.Item)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *mockItemRepo) ListItems(ctx context.Context) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockItemRepo) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, id)
	}
	return &it, nil
}

func (m *mockItemRepo) CreateItem(ctx context.Context, it domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.ID] = it
	return nil
}

func (m *mockItemRepo) UpdateItem(ctx context.Context, it domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; !ok {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, it.ID)
	}
	m.items[it.ID] = it
	return nil
}

func (m *mockItemRepo) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, id)
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepo) stockOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Stock
}

type mockOrderRepo struct {
	mu       sync.Mutex
	items    *mockItemRepo
	orders   []domain.Order
	failWith error
}

func newMockOrderRepo(items *mockItemRepo) *mockOrderRepo {
	return &mockOrderRepo{items: items}
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}

	m.items.mu.Lock()
	defer m.items.mu.Unlock()
	for _, l := range order.Lines {
		it, ok := m.items.items[l.ItemID]
		if !ok || it.Stock < l.Quantity {
			return fmt.Errorf("%w: item %s", domain.ErrInsufficientStock, l.ItemID)
		}
	}
	for _, l := range order.Lines {
		it := m.items.items[l.ItemID]
		it.Stock -= l.Quantity
		m.items.items[l.ItemID] = it
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepo) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, len(m.orders))
	copy(out, m.orders)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepo) ListOrdersByCashier(ctx context.Context, cashierID string) ([]domain.Order, error) {
	all, _ := m.ListOrders(ctx)
	var out []domain.Order
	for _, o := range all {
		if o.CashierID == cashierID {
			out = append(out, o)
		}
	}
	return out, nil
}

type mockAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
}

func newMockAccountRepo(accts ...domain.Account) *mockAccountRepo {
	m := &mockAccountRepo{accounts: make(map[string]domain.Account)}
	for _, a := range accts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountRepo) CreateAccount(ctx context.Context, acct domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == acct.Email || existing.Username == acct.Username {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccount, acct.Email)
		}
	}
	m.accounts[acct.ID] = acct
	return nil
}

func (m *mockAccountRepo) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account", domain.ErrNotFound)
	}
	return &a, nil
}

func (m *mockAccountRepo) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			acct := a
			return &acct, nil
		}
	}
	return nil, fmt.Errorf("%w: account", domain.ErrNotFound)
}

func (m *mockAccountRepo) ListAccountsByRole(ctx context.Context, role domain.Role) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.Role == role {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockAccountRepo) DeleteAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
	}
	delete(m.accounts, id)
	return nil
}

type mockCache struct {
	mu          sync.Mutex
	catalog     []domain.Item
	catalogSet  bool
	commitKeys  map[string]bool
	revoked     map[string]bool
	invalidated int
	failGet     error
	failClear   error
}

func newMockCache() *mockCache {
	return &mockCache{
		commitKeys: make(map[string]bool),
		revoked:    make(map[string]bool),
	}
}

func (m *mockCache) GetCatalog(ctx context.Context) ([]domain.Item, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, false, m.failGet
	}
	if !m.catalogSet {
		return nil, false, nil
	}
	return m.catalog, true, nil
}

func (m *mockCache) SetCatalog(ctx context.Context, items []domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = items
	m.catalogSet = true
	return nil
}

func (m *mockCache) InvalidateCatalog(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = nil
	m.catalogSet = false
	m.invalidated++
	return nil
}

func (m *mockCache) SetCommitKey(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitKeys[key] {
		return false, nil
	}
	m.commitKeys[key] = true
	return true, nil
}

func (m *mockCache) ClearCommitKey(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClear != nil {
		err := m.failClear
		m.failClear = nil
		return err
	}
	delete(m.commitKeys, key)
	return nil
}

func (m *mockCache) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = true
	return nil
}

func (m *mockCache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[tokenID], nil
}
