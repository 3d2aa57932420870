package out

import "context"

// BlobStore holds opaque serialized values under string keys. Get returns
// apperrors.ErrNotFound when the key is absent.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Notifier surfaces operator-facing messages outside the terminal.
type Notifier interface {
	Notify(ctx context.Context, summary, body string) error
}

// ChangeWatcher reports writes made to the backing store by other processes.
type ChangeWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}
