package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/schema"
	"github.com/manojoshi/paramsearch/search"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	c, err := Load("testdata/blog.yaml")
	require.NoError(t, err)
	require.Len(t, c.Entities, 3)

	post := c.Entities[0]
	assert.Equal(t, "posts", post.Table)
	assert.Equal(t, "id", post.PrimaryKey)
	assert.Equal(t, "text", post.Fields[1].Type)
	assert.Equal(t, "gaps", post.Search.Pattern)

	assert.Equal(t, RelationConfig{Kind: "belongs_to", Target: "user", LocalKey: "author_id", RemoteKey: "id"}, post.Relations["author"])
	assert.Equal(t, RelationConfig{Kind: "has_many", Target: "comment", LocalKey: "id", RemoteKey: "post_id"}, post.Relations["comments"])

	user := c.Entities[1]
	assert.Equal(t, "author_id", user.Relations["posts"].RemoteKey, "explicit keys are kept")
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("BLOG_PATTERN", "substring")
	c, err := Load("testdata/blog.yaml")
	require.NoError(t, err)
	assert.Equal(t, "substring", c.Entities[0].Search.Pattern)

	_, cfgs, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, query.PatternSubstring, cfgs[0].Pattern)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	assert.ErrorContains(t, err, "failed to read catalog")
}

func TestBuild(t *testing.T) {
	c, err := Load("testdata/blog.yaml")
	require.NoError(t, err)

	reg, cfgs, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"comment", "post", "user"}, reg.Names())

	rel, target, ok := reg.Resolve("post", "author")
	require.True(t, ok)
	assert.Equal(t, schema.ToOne, rel.Kind)
	assert.Equal(t, "user", target.Name)

	f, ok := target.Field("name")
	require.True(t, ok)
	assert.Equal(t, schema.Text, f.Type)

	require.Len(t, cfgs, 3)
	assert.Equal(t, search.Config{
		Entity:            "post",
		Fuzzy:             []string{"title"},
		Relations:         []string{"author", "comments"},
		FreeTextRelations: []string{"author"},
		Pattern:           query.PatternGaps,
	}, cfgs[0])
}

func TestSearcher_EndToEnd(t *testing.T) {
	c, err := Load("testdata/blog.yaml")
	require.NoError(t, err)
	s, err := c.Searcher()
	require.NoError(t, err)

	post, _ := s.Registry().Entity("post")
	b := query.NewBuilder(post, s.Registry())
	require.NoError(t, s.SearchWithRelations(b, search.Params{"comment_body": "nice"}, "post"))
	assert.Equal(t, `comments HAS (body LIKE "%n%i%c%e%")`, query.Format(b.Expr()))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "entities is required"},
		{"unknown key", "entities:\n  - name: a\n    colour: red\n", "field colour not found"},
		{"missing name", "entities:\n  - table: x\n", "entities[0].name is required"},
		{"duplicate", "entities:\n  - name: a\n    fields: [x]\n  - name: a\n    fields: [x]\n", `duplicate entity "a"`},
		{"bad field type", "entities:\n  - name: a\n    fields: [{name: x, type: blob}]\n", "unknown field type"},
		{"bad kind", "entities:\n  - name: a\n    fields: [x]\n    relations:\n      b: {kind: many_to_many}\n", "unknown relation kind"},
		{"bad pattern", "entities:\n  - name: a\n    fields: [x]\n    search: {pattern: fuzzy}\n", "unknown pattern mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuild_CrossChecks(t *testing.T) {
	c, err := Parse([]byte("entities:\n  - name: a\n    fields: [x]\n    search: {fuzzy: [y]}\n"))
	require.NoError(t, err)
	_, _, err = c.Build()
	assert.ErrorIs(t, err, search.ErrConfiguration)

	c, err = Parse([]byte("entities:\n  - name: a\n    fields: [x]\n    relations:\n      owner: {target: ghost}\n"))
	require.NoError(t, err)
	_, _, err = c.Build()
	assert.ErrorContains(t, err, "unknown entity")
}
