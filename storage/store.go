// Package storage persists encoded player records to an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrStorageWrite marks a failed object write.
var ErrStorageWrite = errors.New("storage write failure")

// Store is the object-store collaborator.
type Store interface {
	// Put writes body under key, replacing any previous object.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Ping verifies the destination is reachable and writable.
	Ping(ctx context.Context) error
}

// WriteError carries the key of a failed write.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrStorageWrite, e.Err}
}

func writeFailure(key string, err error) error {
	return &WriteError{Key: key, Err: err}
}
