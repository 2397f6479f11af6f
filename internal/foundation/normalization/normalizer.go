// Package normalization maps loosely written strings (config values, CLI
// arguments) onto typed enumerations.
package normalization

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

// Normalizer maps case-insensitive, space-trimmed keys to values of T.
type Normalizer[T comparable] struct {
	name      string
	values    map[string]T
	fallback  T
	validKeys []string
}

// New returns a Normalizer. name is used in error messages; fallback is what
// Normalize returns for unknown input.
func New[T comparable](name string, values map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{
		name:      name,
		values:    make(map[string]T, len(values)),
		fallback:  fallback,
		validKeys: make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.validKeys = append(n.validKeys, key)
	}
	slices.Sort(n.validKeys)
	return n
}

// Normalize returns the value for raw, or the fallback when unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[clean(raw)]; ok {
		return v
	}
	return n.fallback
}

// Parse returns the value for raw or a validation error listing the keys.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, errors.ValidationError("invalid "+n.name).
		WithContext("value", raw).
		WithContext("valid", n.ValidKeys()).
		Build()
}

// Known reports whether raw maps to a value.
func (n *Normalizer[T]) Known(raw string) bool {
	_, ok := n.values[clean(raw)]
	return ok
}

// ValidKeys returns the accepted keys, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	return slices.Clone(n.validKeys)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
