package storage

import (
	"context"
	"io"
	"time"
)

// Info describes a stored object.
type Info struct {
	Size    int64
	ModTime time.Time
}

// Backend is the byte-level storage abstraction. Paths are opaque
// slash-separated keys relative to the backend's namespace.
type Backend interface {
	// Kind identifies the backend implementation ("local", ...).
	Kind() string

	// Write stores the full content of r under path, creating parent
	// directories as needed. Returns the number of bytes written.
	Write(ctx context.Context, path string, r io.Reader) (int64, error)

	// Read returns the full content stored under path.
	Read(ctx context.Context, path string) ([]byte, error)

	// OpenRange opens a reader over bytes [start, end] inclusive.
	OpenRange(ctx context.Context, path string, start, end int64) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error

	// EnsureDir makes sure the directory exists.
	EnsureDir(ctx context.Context, path string) error

	// Stat returns size and modification time of the object.
	Stat(ctx context.Context, path string) (Info, error)
}
