// Package store provides persistence backends for translation sessions and
// glossaries. All implementations satisfy the root package's SessionStore
// interface; Store adds deletion on top of it.
package store

import (
	"context"

	"github.com/chapterwise/chapterwise"
)

// Store is a key/value persistence backend.
type Store interface {
	chapterwise.SessionStore

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
