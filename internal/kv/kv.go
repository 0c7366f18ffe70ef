// Package kv provides the host key/value persistence used to keep store
// snapshots between process restarts.
package kv

import "context"

// KV is a string key/value persistence API.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}
