package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore serves objects from the local filesystem, laid out as
// <baseDir>/<bucket>/<name>. Local files are unversioned; the generation in
// a ref is ignored. Intended for development and tests.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a new local filesystem store.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create base directory %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Fetch reads the file backing the object.
func (s *LocalStore) Fetch(ctx context.Context, ref ObjectRef) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, ref.Bucket, ref.Name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("read object %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes the file backing the object. A missing file reports an
// unsuccessful delete without an error, matching the store-level bool
// contract.
func (s *LocalStore) Delete(ctx context.Context, bucket, name string) (bool, error) {
	err := os.Remove(filepath.Join(s.baseDir, bucket, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete %s/%s: %w", bucket, name, err)
	}
	return true, nil
}

// Close is a no-op for the local backend.
func (s *LocalStore) Close() error {
	return nil
}
