package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSStore reads and deletes objects in Google Cloud Storage.
// Uses Application Default Credentials (ADC) for authentication.
type GCSStore struct {
	client *gcs.Client
}

// NewGCSStore creates a new GCS-backed object store.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Fetch reads the object pinned to ref's generation.
func (s *GCSStore) Fetch(ctx context.Context, ref ObjectRef) ([]byte, error) {
	obj := s.client.Bucket(ref.Bucket).Object(ref.Name)
	if ref.Generation != 0 {
		obj = obj.Generation(ref.Generation)
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("open object %s: %w", ref, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes the current generation of the object.
func (s *GCSStore) Delete(ctx context.Context, bucket, name string) (bool, error) {
	if err := s.client.Bucket(bucket).Object(name).Delete(ctx); err != nil {
		return false, fmt.Errorf("delete gs://%s/%s: %w", bucket, name, err)
	}
	return true, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
