package port

import (
	"context"
	"time"

	"github.com/rl1809/retail-pos/internal/core/domain"
)

type CacheRepository interface {
	// GetCatalog returns the cached catalog snapshot; ok is false on a miss.
	GetCatalog(ctx context.Context) (items []domain.Item, ok bool, err error)

	SetCatalog(ctx context.Context, items []domain.Item) error

	// InvalidateCatalog drops the snapshot so the next read re-fetches.
	InvalidateCatalog(ctx context.Context) error

	// SetCommitKey sets an idempotency key, returns false if already taken.
	SetCommitKey(ctx context.Context, key string) (bool, error)

	// ClearCommitKey releases the key so a failed commit can be retried.
	ClearCommitKey(ctx context.Context, key string) error

	// RevokeToken marks a token id as signed out until it expires anyway.
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error

	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}
