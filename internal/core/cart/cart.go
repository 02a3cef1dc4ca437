// Package cart implements the in-memory cart and checkout episode for a
// single cashier. One Cart covers one episode: build lines, begin checkout,
// commit. Stock checks here are advisory against the stock figure captured
// when the line was added or refreshed; the authoritative check happens in
// the order transaction.
package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/retail-pos/internal/core/domain"
)

type State string

const (
	StateEmpty           State = "empty"
	StateBuilding        State = "building"
	StateReadyForPayment State = "ready_for_payment"
	StateCommitting      State = "committing"
	StateFailed          State = "failed"
)

// Line pairs an item snapshot with the requested quantity.
type Line struct {
	Item     domain.Item `json:"item"`
	Quantity int         `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	mu      sync.Mutex
	state   State
	episode string
	lines   []Line
}

func New() *Cart {
	return &Cart{state: StateEmpty}
}

func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EpisodeID identifies the current checkout episode. It is minted when the
// cart leaves Empty and survives a Failed commit so retries share it.
func (c *Cart) EpisodeID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episode
}

func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is recomputed on every call, never cached.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total()
}

func (c *Cart) total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// AddItem inserts a line with quantity 1, or bumps an existing line by 1.
// The passed item is the current catalog row; an existing line's snapshot
// is refreshed from it so the stock ceiling tracks the latest known figure.
func (c *Cart) AddItem(item domain.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCommitting {
		return domain.ErrCommitInFlight
	}
	for i := range c.lines {
		if c.lines[i].Item.ID != item.ID {
			continue
		}
		if c.lines[i].Quantity+1 > item.Stock {
			return domain.ErrInsufficientStock
		}
		c.lines[i].Item = item
		c.lines[i].Quantity++
		c.state = StateBuilding
		return nil
	}
	if !item.InStock() {
		return domain.ErrInsufficientStock
	}
	c.lines = append(c.lines, Line{Item: item, Quantity: 1})
	if c.episode == "" {
		c.episode = uuid.NewString()
	}
	c.state = StateBuilding
	return nil
}

// AdjustQuantity moves a line's quantity by delta. A step below 1 is a
// no-op (removal must be explicit); a step above the known stock is
// rejected and leaves the line unchanged.
func (c *Cart) AdjustQuantity(itemID string, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCommitting {
		return domain.ErrCommitInFlight
	}
	for i := range c.lines {
		if c.lines[i].Item.ID != itemID {
			continue
		}
		next := c.lines[i].Quantity + delta
		if next < 1 {
			return nil
		}
		if next > c.lines[i].Item.Stock {
			return domain.ErrInsufficientStock
		}
		c.lines[i].Quantity = next
		c.state = StateBuilding
		return nil
	}
	return domain.ErrNotFound
}

// RemoveItem deletes the line unconditionally. Removing an absent item is
// not an error.
func (c *Cart) RemoveItem(itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCommitting {
		return domain.ErrCommitInFlight
	}
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			break
		}
	}
	if len(c.lines) == 0 {
		c.state = StateEmpty
		c.episode = ""
	} else {
		c.state = StateBuilding
	}
	return nil
}

func (c *Cart) BeginCheckout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCommitting {
		return domain.ErrCommitInFlight
	}
	if len(c.lines) == 0 {
		return domain.ErrEmptyCart
	}
	c.state = StateReadyForPayment
	return nil
}

// CancelCheckout steps back from ReadyForPayment or Failed to Building.
// It never interrupts an in-flight commit.
func (c *Cart) CancelCheckout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCommitting {
		return domain.ErrCommitInFlight
	}
	if len(c.lines) == 0 {
		c.state = StateEmpty
	} else {
		c.state = StateBuilding
	}
	return nil
}

// BeginCommit validates payment and transitions to Committing, returning
// the order-line snapshot and total for persistence. Validation failures
// leave the cart exactly as it was. A second BeginCommit while one is in
// flight is rejected, which is what prevents double submission.
func (c *Cart) BeginCommit(tendered decimal.Decimal) ([]domain.OrderLine, decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateCommitting:
		return nil, decimal.Zero, domain.ErrCommitInFlight
	case StateReadyForPayment, StateFailed:
	case StateEmpty:
		return nil, decimal.Zero, domain.ErrEmptyCart
	default:
		return nil, decimal.Zero, domain.ErrCheckoutNotStarted
	}
	if len(c.lines) == 0 {
		return nil, decimal.Zero, domain.ErrEmptyCart
	}

	total := c.total()
	if tendered.LessThan(total) {
		return nil, decimal.Zero, domain.ErrInsufficientPayment
	}

	snapshot := make([]domain.OrderLine, len(c.lines))
	for i, l := range c.lines {
		snapshot[i] = domain.OrderLine{
			ItemID:    l.Item.ID,
			Name:      l.Item.Name,
			UnitPrice: l.Item.Price,
			Quantity:  l.Quantity,
		}
	}
	c.state = StateCommitting
	return snapshot, total, nil
}

// FinishCommit resolves the Committing state. On success the episode is
// done and the cart resets to Empty; on failure the lines are kept so the
// cashier can retry or cancel.
func (c *Cart) FinishCommit(commitErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCommitting {
		return
	}
	if commitErr != nil {
		c.state = StateFailed
		return
	}
	c.lines = nil
	c.episode = ""
	c.state = StateEmpty
}
