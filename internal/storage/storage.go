// Package storage provides the key-value backends behind the storefront's
// per-browser state: durable storage (identity, no expiry) and session
// storage (list snapshots, short-lived).  Writers take no locks; single-key
// reads and writes rely on the backend's own atomicity.
package storage

import "context"

// KV is a string key-value store.
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Key namespaces name under a browser session id.
func Key(session, name string) string {
	return session + ":" + name
}
