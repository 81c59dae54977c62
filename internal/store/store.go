// Package store caches converted documents by key.
package store

import (
	"context"
	"errors"

	"github.com/dgallion1/papergest/internal/doctree"
)

// ErrNotFound is returned by Get for a missing or expired key.
var ErrNotFound = errors.New("document not found")

// Entry is one cached conversion: the document plus how it was built.
type Entry struct {
	Document *doctree.Document `json:"document"`
	Strategy string            `json:"strategy,omitempty"`
	Pages    int               `json:"pages"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	out.Document = e.Document.Clone()
	return &out
}

// Store keeps converted documents.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, e *Entry) error
	Close() error
}
