// Package archive stores opaque blobs on local disk or S3-compatible object storage.
package archive

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotExist is returned when a path has no stored object
var ErrNotExist = errors.New("archive: object does not exist")

// Storage defines the interface for blob storage backends.
// Paths are slash separated and relative to the backend root.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error
	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)
	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error
	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// cleanPath rejects absolute paths and paths escaping the root
func cleanPath(p string) (string, error) {
	if p == "" {
		return "", errors.New("archive: empty path")
	}
	cleaned := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("archive: path escapes storage root: " + p)
	}
	return cleaned, nil
}
