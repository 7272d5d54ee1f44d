// Package localstore is the storefront's persisted key-value store, the
// counterpart of browser localStorage. Values are opaque strings (JSON
// documents or plain scalars); callers own the encoding.
package localstore

import "context"

// Store is a string-keyed persistent KV store.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key. Used on logout and session expiry.
	Clear(ctx context.Context) error
}
