package storage

import "context"

// Storage is a keyed store whose List walks keys in lexical order.
type Storage interface {
	Create(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (any, error)
	Update(ctx context.Context, key string, value any) error
	List(ctx context.Context, prefix string, offset, limit uint64) ([]any, uint64, error)
	Delete(ctx context.Context, key string) error
}
