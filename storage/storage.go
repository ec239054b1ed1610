package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no blob has been saved yet.
var ErrNotFound = errors.New("no persisted state")

// Storage is a single durable blob slot.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}
