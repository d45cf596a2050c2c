package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/schema"
)

func fields(names ...string) []schema.Field {
	out := make([]schema.Field, len(names))
	for i, n := range names {
		out[i] = schema.Field{Name: n}
	}
	return out
}

// blogSchema: post → author/editor (both user), post → comments,
// user → posts, comment → post.
func blogSchema(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(
		schema.Entity{
			Name: "post", Table: "posts", PrimaryKey: "id",
			Fields: fields("id", "title", "status", "author_id", "editor_id"),
			Relations: map[string]schema.Relation{
				"author":   {Name: "author", Kind: schema.ToOne, Target: "user", LocalKey: "author_id", RemoteKey: "id"},
				"editor":   {Name: "editor", Kind: schema.ToOne, Target: "user", LocalKey: "editor_id", RemoteKey: "id"},
				"comments": {Name: "comments", Kind: schema.ToMany, Target: "comment", LocalKey: "id", RemoteKey: "post_id"},
			},
		},
		schema.Entity{
			Name: "user", Table: "users", PrimaryKey: "id",
			Fields: fields("id", "name", "email", "password"),
			Relations: map[string]schema.Relation{
				"posts": {Name: "posts", Kind: schema.ToMany, Target: "post", LocalKey: "id", RemoteKey: "author_id"},
			},
		},
		schema.Entity{
			Name: "comment", Table: "comments", PrimaryKey: "id",
			Fields: fields("id", "body", "post_id"),
			Relations: map[string]schema.Relation{
				"post": {Name: "post", Kind: schema.ToOne, Target: "post", LocalKey: "post_id", RemoteKey: "id"},
			},
		},
		schema.Entity{Name: "ticket", Table: "tickets", PrimaryKey: "id", Fields: fields("status", "tags", "created_at")},
		schema.Entity{Name: "contact", Table: "contacts", PrimaryKey: "id", Fields: fields("name", "email")},
	)
	require.NoError(t, err)
	return reg
}

func blogSearcher(t *testing.T) *Searcher {
	t.Helper()
	s := NewSearcher(blogSchema(t))
	require.NoError(t, s.Register(
		Config{
			Entity:            "post",
			Fuzzy:             []string{"title"},
			Relations:         []string{"author", "editor", "comments"},
			FreeTextRelations: []string{"author", "editor"},
		},
		Config{
			Entity:    "user",
			Excluded:  []string{"password"},
			Fuzzy:     []string{"name"},
			Relations: []string{"posts"},
		},
		Config{Entity: "contact", Fuzzy: []string{"name"}},
	))
	return s
}

func newBuilder(t *testing.T, s *Searcher, entity string) *query.Builder {
	t.Helper()
	e, ok := s.Registry().Entity(entity)
	require.True(t, ok)
	return query.NewBuilder(e, s.Registry())
}

func relation(t *testing.T, s *Searcher, entity, name string) schema.Relation {
	t.Helper()
	r, _, ok := s.Registry().Resolve(entity, name)
	require.True(t, ok)
	return r
}
