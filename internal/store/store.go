// Package store provides the record storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/kislerdm/dk-utils/internal/flatten"
	"github.com/kislerdm/dk-utils/internal/model"
)

// ErrNotFound is returned when no live record matches ns/key.
var ErrNotFound = errors.New("record not found")

// PutParams holds parameters for storing a record.
type PutParams struct {
	NS             string
	Key            string
	Source         flatten.Mapping
	SimplifyArrays bool
	Tags           []string
}

// GetParams holds parameters for retrieving a record.
type GetParams struct {
	NS      string
	Key     string
	History bool
	Version int // 0 means latest
}

// ListParams holds parameters for listing records.
type ListParams struct {
	NS    string
	Tags  []string
	Limit int
}

// RmParams holds parameters for deleting a record.
type RmParams struct {
	NS          string
	Key         string
	AllVersions bool
	Hard        bool
}

// Store defines the record storage interface.
type Store interface {
	// Put flattens and stores a new version of ns/key. Returns the created record.
	Put(ctx context.Context, p PutParams) (*model.Record, error)

	// Get retrieves a record with its fields.
	// Returns a slice (single element normally, multiple with History=true).
	Get(ctx context.Context, p GetParams) ([]model.Record, error)

	// List lists the latest version of records matching the given filters.
	List(ctx context.Context, p ListParams) ([]model.Record, error)

	// Search finds records with a field matching a path prefix.
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)

	// Rm soft-deletes (or hard-deletes) a record.
	Rm(ctx context.Context, p RmParams) error

	// Close closes the store.
	Close() error
}
