package model

import (
	"context"
	"io"
)

// Storage is the blob store contract for uploaded images. Keys are opaque
// references generated by the caller; original filenames are metadata
// carried on the MatchRecord, never part of blob identity.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
