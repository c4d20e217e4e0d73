package driven

import "context"

// KeyValueStore is the persistent string key-value store the storefront
// keeps its state in. Values are JSON documents. Writes are last-write-wins
// with no transactions across keys.
type KeyValueStore interface {
	// Get returns the value for key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists the stored keys with the given prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
