package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manojoshi/paramsearch/schema"
)

func blogRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(
		schema.Entity{
			Name: "post", Table: "posts", PrimaryKey: "id",
			Fields: []schema.Field{
				{Name: "id", Type: schema.Numeric},
				{Name: "title", Type: schema.Text},
				{Name: "status", Type: schema.Tag},
				{Name: "author_id", Type: schema.Numeric},
				{Name: "created_at", Type: schema.Numeric, Sortable: true},
			},
			Relations: map[string]schema.Relation{
				"author": {Name: "author", Kind: schema.ToOne, Target: "author", LocalKey: "author_id", RemoteKey: "id"},
			},
		},
		schema.Entity{
			Name: "author", Table: "authors", PrimaryKey: "id",
			Fields: []schema.Field{
				{Name: "id", Type: schema.Numeric},
				{Name: "name", Type: schema.Text},
				{Name: "email", Type: schema.Tag},
			},
			Relations: map[string]schema.Relation{
				"posts": {Name: "posts", Kind: schema.ToMany, Target: "post", LocalKey: "id", RemoteKey: "author_id"},
			},
		},
	)
	require.NoError(t, err)
	return reg
}

func postBuilder(t *testing.T) *Builder {
	t.Helper()
	reg := blogRegistry(t)
	post, ok := reg.Entity("post")
	require.True(t, ok)
	return NewBuilder(post, reg)
}

// execFunc adapts a function to driver.Executor.
type execFunc func(ctx context.Context, args ...interface{}) (any, error)

func (f execFunc) Do(ctx context.Context, args ...interface{}) (any, error) { return f(ctx, args...) }
