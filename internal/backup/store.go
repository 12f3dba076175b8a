package backup

import (
	"context"
	"time"
)

// Object describes a stored backup.
type Object struct {
	Key      string
	Size     int64
	Modified time.Time
}

// Store is a flat key/value blob store.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get fails with common.ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}
