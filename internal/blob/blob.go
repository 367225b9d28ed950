// Package blob stores published layout files (JSON snapshots and PNG
// plans) in a remote file store.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get for a path that was never written.
var ErrNotFound = errors.New("blob not found")

// Store is a flat path-addressed file store.  size is the number of bytes
// Put will read from r.
type Store interface {
	Put(ctx context.Context, path, contentType string, r io.Reader, size int64) error
	Get(ctx context.Context, path string, w io.Writer) error
}
