package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// BlobStore is the asset/artifact storage collaborator. Keys are
// slash-separated relative paths like "{project_id}/pages/img.png" or
// "{project_id}/exports/deck.pdf". Put must publish atomically: a reader
// never observes a partially written object.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
