// Package storage abstracts the object store holding inbound Avro container
// files.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ObjectRef identifies one immutable version of a stored object.
type ObjectRef struct {
	Bucket     string
	Name       string
	Generation int64 // 0 = latest
}

// URI returns the bucket-qualified source URI passed to the warehouse.
func (r ObjectRef) URI() string {
	return fmt.Sprintf("gs://%s/%s", r.Bucket, r.Name)
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("gs://%s/%s#%d", r.Bucket, r.Name, r.Generation)
}

// ErrNotFound is returned when an object does not exist at the requested
// generation.
var ErrNotFound = errors.New("object not found")

// ObjectStore reads and deletes inbound objects.
type ObjectStore interface {
	// Fetch returns the full payload of the object at ref's generation.
	Fetch(ctx context.Context, ref ObjectRef) ([]byte, error)

	// Delete removes an object. The bool mirrors the store's own
	// success-report; callers treat deletion as best-effort.
	Delete(ctx context.Context, bucket, name string) (bool, error)

	// Close releases any resources.
	Close() error
}

// Config configures the object-store backend.
type Config struct {
	Backend  string // "gcs" | "local"
	LocalDir string // base directory for the local backend
}

// NewObjectStore creates an object store based on configuration.
func NewObjectStore(ctx context.Context, cfg Config) (ObjectStore, error) {
	switch cfg.Backend {
	case "gcs":
		return NewGCSStore(ctx)
	case "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("LocalDir required for local backend")
		}
		return NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
