package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is shared by the dashboard count and the analytics list
// so the two can never disagree.
const LowStockThreshold = 10

type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i Item) InStock() bool {
	return i.Stock > 0
}

func (i Item) LowStock() bool {
	return i.Stock < LowStockThreshold
}
