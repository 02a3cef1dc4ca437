package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "CASH"
	PaymentGCash PaymentMethod = "GCASH"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentGCash
}

// OrderLine is a snapshot of the item at the time of sale, not a live
// reference; later price or name edits must not rewrite history.
type OrderLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is immutable once created. There is no update or delete path
// anywhere in the repository.
type Order struct {
	ID             string          `json:"id"`
	Lines          []OrderLine     `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Payment        PaymentMethod   `json:"payment_type"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	Change         decimal.Decimal `json:"change"`
	CashierID      string          `json:"cashier_id"`
	CashierName    string          `json:"cashier_name"`
	CreatedAt      time.Time       `json:"created_at"`
}
