// Package store abstracts the remote object store that carries audio and
// transcription artifacts between pipeline stages.
// Supported providers: Amazon S3 (and S3-compatible services), in-memory.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when an address does not resolve.
var ErrNotFound = errors.New("store: object not found")

// Address identifies one stored object as a (container, sanitized key) pair.
type Address struct {
	Container string
	Key       string
}

func (a Address) String() string {
	return a.Container + "/" + a.Key
}

// Store defines the operations the pipeline needs from an object store.
// Every call reflects current remote state; implementations do not cache.
type Store interface {
	// EnsureContainer creates the container if it does not exist.
	// An already existing container is not an error.
	EnsureContainer(ctx context.Context, container string) error

	// Put uploads data under the sanitized form of key, overwriting any
	// existing object. The returned address carries the sanitized key so
	// callers can round-trip it.
	Put(ctx context.Context, container, key string, data []byte) (Address, error)

	// Get downloads the object at addr. Returns ErrNotFound if the
	// address does not resolve.
	Get(ctx context.Context, addr Address) ([]byte, error)

	// List returns the keys in container that start with prefix, in the
	// provider's listing order.
	List(ctx context.Context, container, prefix string) ([]string, error)

	// Exists reports whether an object is present at addr.
	Exists(ctx context.Context, addr Address) (bool, error)

	// SignedGetURL returns a time-limited read-only URL for addr.
	SignedGetURL(ctx context.Context, addr Address, expiry time.Duration) (string, error)
}
