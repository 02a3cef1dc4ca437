package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/retail-pos/internal/core/domain"
	"github.com/rl1809/retail-pos/internal/port"
)

// CatalogService fronts the item table with a thin cache-aside layer.
// Mutations invalidate the snapshot; correctness comes from the re-fetch,
// never from patching the cached list.
type CatalogService struct {
	items port.ItemRepository
	cache port.CacheRepository
}

func NewCatalogService(items port.ItemRepository, cache port.CacheRepository) *CatalogService {
	return &CatalogService{items: items, cache: cache}
}

type ItemFields struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

func (f ItemFields) validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidItem)
	}
	if f.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidItem)
	}
	if f.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidItem)
	}
	return nil
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Item, error) {
	cached, ok, err := s.cache.GetCatalog(ctx)
	if err != nil {
		// Cache trouble must not take reads down; fall through to the DB.
		log.Printf("catalog cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetCatalog(ctx, items); err != nil {
		log.Printf("catalog cache write failed: %v", err)
	}
	return items, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Item, error) {
	return s.items.GetItem(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, fields ItemFields) (*domain.Item, error) {
	if err := fields.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	item := domain.Item{
		ID:        uuid.NewString(),
		Name:      fields.Name,
		Category:  fields.Category,
		Price:     fields.Price,
		Stock:     fields.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &item, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, fields ItemFields) (*domain.Item, error) {
	if err := fields.validate(); err != nil {
		return nil, err
	}
	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = fields.Name
	item.Category = fields.Category
	item.Price = fields.Price
	item.Stock = fields.Stock
	item.UpdatedAt = time.Now()
	if err := s.items.UpdateItem(ctx, *item); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return item, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.items.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		log.Printf("catalog cache invalidation failed: %v", err)
	}
}
