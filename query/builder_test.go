package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/paramsearch/schema"
)

func TestBuilder_AndBindsTighterThanOr(t *testing.T) {
	b := postBuilder(t)
	b.WhereEqual("a", 1)
	b.OrWhereEqual("b", 2)
	b.WhereEqual("c", 3)

	assert.Equal(t, Or(Eq("a", 1), And(Eq("b", 2), Eq("c", 3))), b.Expr())
	assert.Equal(t, "(a = 1 OR (b = 2 AND c = 3))", Format(b.Expr()))
}

func TestBuilder_LeadingOrIsPlainFirstClause(t *testing.T) {
	b := postBuilder(t)
	b.OrWhereLike("title", "%x%")

	assert.Equal(t, Like("title", "%x%"), b.Expr())
}

func TestBuilder_EmptyGroupsVanish(t *testing.T) {
	b := postBuilder(t)
	b.Where(func(Clauses) {})
	assert.Nil(t, b.Expr())

	b.WhereEqual("status", "open")
	b.OrWhere(func(Clauses) {})
	assert.Equal(t, Eq("status", "open"), b.Expr())
}

func TestBuilder_NestedGroup(t *testing.T) {
	b := postBuilder(t)
	b.WhereEqual("status", "open")
	b.Where(func(g Clauses) {
		g.WhereLike("title", "%a%")
		g.OrWhereIn("id", []any{1, 2})
	})

	assert.Equal(t, `(status = "open" AND (title LIKE "%a%" OR id IN (1, 2)))`, Format(b.Expr()))
}

func TestBuilder_WhereHasScopesToTarget(t *testing.T) {
	b := postBuilder(t)
	b.WhereHas("author", BooleanAnd, func(a Clauses) {
		a.WhereEqual("name", "ann")
		a.OrderBy("name", Asc)
	})
	require.NoError(t, b.Err())

	rel := schema.Relation{Name: "author", Kind: schema.ToOne, Target: "author", LocalKey: "author_id", RemoteKey: "id"}
	assert.Equal(t, Has(rel, "authors", Eq("name", "ann")), b.Expr())
	assert.Empty(t, b.Sorts(), "sorts inside a relation scope are discarded")
}

func TestBuilder_WhereHasWithoutConstraintsIsExistence(t *testing.T) {
	b := postBuilder(t)
	b.WhereHas("author", BooleanAnd, func(Clauses) {})

	assert.Equal(t, "author HAS ANY", Format(b.Expr()))
}

func TestBuilder_WhereHasUnknownRelation(t *testing.T) {
	b := postBuilder(t)
	b.WhereHas("nope", BooleanOr, func(Clauses) {})
	b.WhereHas("comments", BooleanOr, func(Clauses) {})

	require.Error(t, b.Err())
	assert.Contains(t, b.Err().Error(), `"post" has no relation "nope"`, "first error wins")
	assert.Nil(t, b.Expr())

	_, _, err := b.SQL(SQLite)
	assert.Equal(t, b.Err(), err)
}

func TestBuilder_WhereHasWithoutResolver(t *testing.T) {
	b := NewBuilder(&schema.Entity{Name: "post"}, nil)
	b.WhereHas("author", BooleanAnd, nil)
	assert.ErrorContains(t, b.Err(), "needs a resolver")
}

func TestBuilder_SortsKeepOrder(t *testing.T) {
	b := postBuilder(t)
	b.OrderBy("created_at", Desc)
	b.OrderBy("title", Asc)
	b.Where(func(g Clauses) { g.OrderBy("id", Asc) })

	assert.Equal(t, []Sort{{"created_at", Desc}, {"title", Asc}}, b.Sorts())
}

func TestBuilder_String(t *testing.T) {
	b := postBuilder(t)
	b.WhereEqual("status", "open")
	b.OrderBy("created_at", Desc)

	assert.Equal(t, `status = "open" ORDER BY created_at DESC`, b.String())
}

func TestBuilder_Range(t *testing.T) {
	b := postBuilder(t)
	b.WhereBetween("created_at", 10, nil)
	b.WhereExpr(Not(Eq("status", "draft")))

	assert.Equal(t, `(created_at >= 10 AND NOT status = "draft")`, Format(b.Expr()))
}

func TestParseBoolean(t *testing.T) {
	for in, want := range map[string]Boolean{"": BooleanAnd, "and": BooleanAnd, "OR": BooleanOr} {
		got, err := ParseBoolean(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBoolean("xor")
	assert.Error(t, err)
}
