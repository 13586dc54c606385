// Package storage persists accepted uploads. Backends never overwrite an
// existing object of the same name.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrExists is returned when the destination name is already taken.
var ErrExists = errors.New("object already exists")

// Object describes a stored upload.
type Object struct {
	// Location is a backend-specific address: a file path, s3:// or gs:// URL.
	Location string
	Size     int64
}

// Store writes one upload under a caller-chosen name.
type Store interface {
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) (Object, error)
}
