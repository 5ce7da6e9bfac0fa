// Package storage stores uploaded documents and hands back opaque locators.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidLocator = errors.New("invalid storage locator")
	ErrObjectNotFound = errors.New("stored object not found")
)

// Storage is the file storage collaborator. Locators are opaque to callers.
type Storage interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, locator string) error
	Exists(ctx context.Context, locator string) (bool, error)
}

// DeleteAll removes every locator, returning the first error encountered.
func DeleteAll(ctx context.Context, s Storage, locators ...string) error {
	var first error
	for _, loc := range locators {
		if loc == "" {
			continue
		}
		if err := s.Delete(ctx, loc); err != nil && !errors.Is(err, ErrObjectNotFound) && first == nil {
			first = err
		}
	}
	return first
}
