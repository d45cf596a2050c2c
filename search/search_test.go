package search

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/manojoshi/paramsearch/query"
)

func run(t *testing.T, s *Searcher, entity string, p Params, relations bool, opts ...Option) *query.Builder {
	t.Helper()
	b := newBuilder(t, s, entity)
	var err error
	if relations {
		err = s.SearchWithRelations(b, p, entity, opts...)
	} else {
		err = s.Search(b, p, entity, opts...)
	}
	require.NoError(t, err)
	require.NoError(t, b.Err())
	return b
}

func TestSearch_ExactScenario(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "ticket", Params{"status": "open", "tags": []any{"a", "b"}}, false)

	assert.Equal(t, query.And(query.Eq("status", "open"), query.In("tags", "a", "b")), b.Expr())
	assert.Equal(t, `(status = "open" AND tags IN ("a", "b"))`, query.Format(b.Expr()))
}

func TestSearch_FreeTextScenario(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "contact", Params{"q": "foo"}, false)

	assert.Equal(t, query.Or(query.Like("name", "%f%o%o%"), query.Eq("email", "foo")), b.Expr())
}

func TestSearch_FreeTextProbesAllFuzzyFields(t *testing.T) {
	s := blogSearcher(t)
	require.NoError(t, s.Register(Config{Entity: "comment", Fuzzy: []string{"body"}}))
	b := run(t, s, "comment", Params{"q": "cat"}, false)

	assert.Equal(t, `(body LIKE "%c%a%t%" OR id = "cat" OR post_id = "cat")`, query.Format(b.Expr()))
}

func TestSearch_FreeTextFieldValueWins(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "contact", Params{"q": "foo", "email": "a@b.c"}, false)

	assert.Equal(t, query.Or(query.Like("name", "%f%o%o%"), query.Eq("email", "a@b.c")), b.Expr())
}

func TestSearch_ListValuesAreAnyOf(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "contact", Params{"name": []any{"al", "bo"}, "email": []any{"x", "y"}}, false)

	assert.Equal(t, query.And(
		query.Or(query.Like("name", "%a%l%"), query.Like("name", "%b%o%")),
		query.In("email", "x", "y"),
	), b.Expr())
}

func TestSearch_CombineOr(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "contact", Params{"name": "al", "email": "x"}, false, WithCombine(query.BooleanOr))

	assert.Equal(t, query.Or(query.Like("name", "%a%l%"), query.Eq("email", "x")), b.Expr())
}

func TestSearch_EmptyValuesProduceNothing(t *testing.T) {
	s := blogSearcher(t)
	withEmpty := run(t, s, "contact", Params{"name": ""}, false)
	without := run(t, s, "contact", Params{}, false)

	assert.Nil(t, withEmpty.Expr())
	assert.Equal(t, without.Expr(), withEmpty.Expr())
}

func TestSearch_WithoutFreeText(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "ticket", Params{"q": "x", "status": "open"}, false, WithoutFreeText())

	assert.Equal(t, query.Eq("status", "open"), b.Expr())
}

func TestSearch_WithPrefix(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "ticket", Params{"ticket_status": "open", "status": "closed"}, false, WithPrefix("ticket"))

	assert.Equal(t, query.Eq("status", "open"), b.Expr())
}

func TestSearch_ExcludedFieldsNeverProbed(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "user", Params{"q": "x", "password": "hunter2"}, false)

	assert.NotContains(t, query.Format(b.Expr()), "password")
}

func TestSearch_SortPriority(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "ticket", Params{"sortBy": []any{"status"}, "sortByDesc": []any{"created_at"}}, false)

	assert.Equal(t, []query.Sort{{Field: "status", Dir: query.Asc}}, b.Sorts())
	assert.Nil(t, b.Expr(), "sort keys are not filters")
}

func TestSearch_SortDescSkipsUnknown(t *testing.T) {
	s := blogSearcher(t)
	b := run(t, s, "ticket", Params{"sortByDesc": []any{"created_at", "nope", "status"}}, false)

	assert.Equal(t, []query.Sort{
		{Field: "created_at", Dir: query.Desc},
		{Field: "status", Dir: query.Desc},
	}, b.Sorts())
}

func TestSearch_Idempotent(t *testing.T) {
	s := blogSearcher(t)
	p := Params{"q": "ann", "status": "open", "sortBy": "title", "comment_body": "nice"}

	first := run(t, s, "post", p, true)
	second := run(t, s, "post", p, true)

	assert.Equal(t, first.Expr(), second.Expr())
	if diff := cmp.Diff(first.Sorts(), second.Sorts()); diff != "" {
		t.Errorf("sorts differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.String(), second.String())
}

func TestSearch_UnknownEntity(t *testing.T) {
	s := blogSearcher(t)
	b := newBuilder(t, s, "post")
	err := s.Search(b, Params{}, "invoice")

	require.ErrorIs(t, err, ErrUnknownEntity)
	assert.Equal(t, ErrUnknownEntity, KindOf(err))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "invoice", se.Entity)
}

func TestSearcher_RegisterValidates(t *testing.T) {
	s := NewSearcher(blogSchema(t))

	err := s.Register(Config{Entity: "contact", Fuzzy: []string{"phone"}})
	assert.ErrorIs(t, err, ErrConfiguration)

	err = s.Register(Config{Entity: "post", Relations: []string{"author"}, FreeTextRelations: []string{"editor"}})
	assert.ErrorIs(t, err, ErrConfiguration)

	err = s.Register(Config{Entity: "post", Relations: []string{"tags"}})
	assert.ErrorIs(t, err, ErrConfiguration)

	err = s.Register(Config{Entity: "invoice"})
	assert.ErrorIs(t, err, ErrUnknownEntity)

	_, ok := s.Config("post")
	assert.False(t, ok, "failed registrations store nothing")
}

func TestSearcher_RegisterCopiesConfig(t *testing.T) {
	s := NewSearcher(blogSchema(t))
	cfg := Config{Entity: "contact", Fuzzy: []string{"name"}}
	require.NoError(t, s.Register(cfg))
	cfg.Fuzzy[0] = "email"

	got, ok := s.Config("contact")
	require.True(t, ok)
	assert.Equal(t, []string{"name"}, got.Fuzzy)
}

func TestSearcher_LogsClassification(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewSearcher(blogSchema(t), WithLogger(zap.New(core)))
	b := newBuilder(t, s, "ticket")
	require.NoError(t, s.Search(b, Params{"status": "open"}, "ticket"))

	entries := logs.FilterMessage("classified fields").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ticket", entries[0].ContextMap()["entity"])
}

func TestSearch_PatternMode(t *testing.T) {
	s := blogSearcher(t)
	require.NoError(t, s.Register(Config{Entity: "contact", Fuzzy: []string{"name"}, Pattern: query.PatternSubstring}))
	b := run(t, s, "contact", Params{"name": "al"}, false)

	assert.Equal(t, query.Like("name", "%al%"), b.Expr())
}

func TestSearch_ConcurrentCallsDoNotShareState(t *testing.T) {
	s := blogSearcher(t)
	want := run(t, s, "post", Params{"q": "ann"}, true).String()

	builders := make([]*query.Builder, 8)
	for i := range builders {
		builders[i] = newBuilder(t, s, "post")
	}
	done := make(chan string, len(builders))
	for _, b := range builders {
		go func(b *query.Builder) {
			if err := s.SearchWithRelations(b, Params{"q": "ann"}, "post"); err != nil {
				done <- err.Error()
				return
			}
			done <- b.String()
		}(b)
	}
	for range builders {
		assert.Equal(t, want, <-done)
	}
	assert.True(t, strings.Contains(want, "author HAS"))
}

func TestSearcher_NewBuilder(t *testing.T) {
	s := blogSearcher(t)
	b, err := s.NewBuilder("post")
	require.NoError(t, err)
	assert.Equal(t, "post", b.Entity().Name)

	_, err = s.NewBuilder("invoice")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}
