package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/retail-pos/internal/core/domain"
	"github.com/rl1809/retail-pos/internal/port"
)

const topSellerCount = 5

// AnalyticsService derives aggregates by folding over the already-fetched
// item and order collections. No state of its own.
type AnalyticsService struct {
	items  port.ItemRepository
	orders port.OrderRepository
}

func NewAnalyticsService(items port.ItemRepository, orders port.OrderRepository) *AnalyticsService {
	return &AnalyticsService{items: items, orders: orders}
}

type ItemSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Report struct {
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalOrders       int             `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TopItems          []ItemSales     `json:"top_items"`
	LowStockItems     []domain.Item   `json:"low_stock_items"`
}

type DashboardSummary struct {
	ItemCount     int             `json:"item_count"`
	LowStockCount int             `json:"low_stock_count"`
	OrdersToday   int             `json:"orders_today"`
	TotalSales    decimal.Decimal `json:"total_sales"`
}

func (s *AnalyticsService) Report(ctx context.Context) (*Report, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	r := Summarize(orders, items)
	return &r, nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	summary := dashboard(time.Now(), orders, items)
	return &summary, nil
}

// dashboard counts "today" from midnight in now's location, so the figure
// rolls over with the store's clock rather than UTC.
func dashboard(now time.Time, orders []domain.Order, items []domain.Item) DashboardSummary {
	summary := DashboardSummary{ItemCount: len(items), TotalSales: decimal.Zero}
	for _, it := range items {
		if it.LowStock() {
			summary.LowStockCount++
		}
	}
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	for _, o := range orders {
		summary.TotalSales = summary.TotalSales.Add(o.Total)
		if !o.CreatedAt.Before(dayStart) {
			summary.OrdersToday++
		}
	}
	return summary
}

// Summarize folds the collections into the analytics view. Top sellers are
// ranked by summed quantity; ties keep the order items were first seen in,
// which is why the sort is stable.
func Summarize(orders []domain.Order, items []domain.Item) Report {
	r := Report{
		TotalSales:        decimal.Zero,
		TotalOrders:       len(orders),
		AverageOrderValue: decimal.Zero,
		TopItems:          []ItemSales{},
		LowStockItems:     []domain.Item{},
	}

	counts := make(map[string]int)
	var names []string
	for _, o := range orders {
		r.TotalSales = r.TotalSales.Add(o.Total)
		for _, l := range o.Lines {
			if _, seen := counts[l.Name]; !seen {
				names = append(names, l.Name)
			}
			counts[l.Name] += l.Quantity
		}
	}

	if len(orders) > 0 {
		r.AverageOrderValue = r.TotalSales.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}

	sort.SliceStable(names, func(i, j int) bool {
		return counts[names[i]] > counts[names[j]]
	})
	for _, name := range names {
		if len(r.TopItems) == topSellerCount {
			break
		}
		r.TopItems = append(r.TopItems, ItemSales{Name: name, Quantity: counts[name]})
	}

	for _, it := range items {
		if it.LowStock() {
			r.LowStockItems = append(r.LowStockItems, it)
		}
	}
	return r
}
