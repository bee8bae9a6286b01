// Package datablobstorage reads input tables from and writes reports to a
// local directory or a cloud bucket.
package datablobstorage

import (
	"context"
	"io"
)

type Store interface {
	// List returns the objects directly under the store's root, sorted by key.
	List(ctx context.Context) ([]Resource, error)
	CreateFromReader(ctx context.Context, r io.Reader, key string) (Resource, error)
}

type Resource interface {
	// Key is the name of the resource relative to the store's root.
	Key() string
	// URL locates the resource for display.
	URL() string
	Reader(ctx context.Context) (io.ReadCloser, error)
}
