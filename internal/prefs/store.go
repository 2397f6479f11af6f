// Package prefs persists small string-keyed preference values: plain strings and
// string sets. It is the daemon's equivalent of a shared-preferences file.
package prefs

import (
	"context"

	"git.home.luguber.info/inful/partsd/internal/util/sets"
)

// Store is a synchronous key-value store. Every Put is durable when it returns nil.
type Store interface {
	GetString(ctx context.Context, key string) (value string, found bool, err error)
	PutString(ctx context.Context, key, value string) error
	GetStringSet(ctx context.Context, key string) (set sets.Set[string], found bool, err error)
	PutStringSet(ctx context.Context, key string, set sets.Set[string]) error
	Remove(ctx context.Context, key string) error
	Close() error
}

type kind string

const (
	kindString    kind = "string"
	kindStringSet kind = "string_set"
)
