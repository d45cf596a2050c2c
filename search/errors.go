package search

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a parameter mapping that is not flat key → scalar-or-list.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownEntity signals an entity missing from the schema registry.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnknownRelation signals a relation that is not allowed or does not resolve.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrConfiguration signals an entity search configuration that does not
	// fit its schema.
	ErrConfiguration = errors.New("configuration error")
)

// Error carries the failing entity and detail alongside one of the sentinels.
type Error struct {
	Kind   error
	Entity string
	Detail string
}

func (e *Error) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Detail)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, entity, format string, args ...any) error {
	return &Error{Kind: kind, Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the sentinel err wraps, or nil when it is not a search error.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidInput, ErrUnknownEntity, ErrUnknownRelation, ErrConfiguration} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
