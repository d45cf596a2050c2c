package search

import (
	"go.uber.org/zap"

	"github.com/manojoshi/paramsearch/query"
)

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithLogger sets the logger classification decisions are written to at
// Debug level. Default: zap.NewNop().
func WithLogger(l *zap.Logger) SearcherOption {
	return func(s *Searcher) {
		if l != nil {
			s.log = l
		}
	}
}

// Option adjusts one Search call.
type Option func(*callOptions)

type callOptions struct {
	prefix    string
	freeText  bool
	combine   query.Boolean
	relations *relationSet
}

type relationSet struct {
	allowed, freeText []string
}

func defaultCallOptions() callOptions {
	return callOptions{freeText: true, combine: query.BooleanAnd}
}

// WithPrefix restricts the root entity to "<prefix>_<field>" keys.
func WithPrefix(prefix string) Option {
	return func(o *callOptions) { o.prefix = prefix }
}

// WithoutFreeText ignores "q" for this call.
func WithoutFreeText() Option {
	return func(o *callOptions) { o.freeText = false }
}

// WithCombine joins fields with b outside free-text mode.
func WithCombine(b query.Boolean) Option {
	return func(o *callOptions) { o.combine = b }
}

// WithRelations overrides the entity's configured relation policy for one
// call. freeText must be a subset of allowed.
func WithRelations(allowed, freeText []string) Option {
	return func(o *callOptions) {
		o.relations = &relationSet{
			allowed:  append([]string(nil), allowed...),
			freeText: append([]string(nil), freeText...),
		}
	}
}
