package query

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertGoldenSQL(t *testing.T, name, stmt string, args []any) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(fmt.Sprintf("%s\n%v\n", stmt, args)))
}

func TestSQL_Precedence(t *testing.T) {
	b := postBuilder(t)
	b.WhereEqual("status", "open")
	b.OrWhereLike("title", "%c%a%t%")
	b.WhereEqual("author_id", 7)
	b.OrderBy("created_at", Desc)
	b.Limit(0, 20)

	stmt, args, err := b.SQL(SQLite)
	require.NoError(t, err)
	assertGoldenSQL(t, "sql_precedence_sqlite", stmt, args)
}

func TestSQL_RelationsPostgres(t *testing.T) {
	b := postBuilder(t)
	b.Where(func(g Clauses) {
		g.WhereLike("title", "%g%o%")
		g.WhereHas("author", BooleanOr, func(a Clauses) { a.WhereLike("name", "%g%o%") })
	})
	b.WhereHas("author", BooleanAnd, func(a Clauses) { a.WhereEqual("email", "ann@example.com") })
	b.OrderBy("id", Asc)

	stmt, args, err := b.SQL(Postgres)
	require.NoError(t, err)
	assertGoldenSQL(t, "sql_relations_postgres", stmt, args)
}

func TestSQL_AggregateMySQL(t *testing.T) {
	b := postBuilder(t)
	b.WhereEqual("status", "open")

	stmt, args, err := b.Aggregate("").
		GroupBy(Bucket("created_at", Month)).
		With(Count("n")).
		Limit(0, 12).
		SQL(MySQL)
	require.NoError(t, err)
	assertGoldenSQL(t, "sql_aggregate_mysql", stmt, args)
}

func TestSQL_ValuesNeverInterpolated(t *testing.T) {
	b := postBuilder(t)
	b.WhereEqual("title", "'; DROP TABLE posts; --")

	stmt, args, err := b.SQL(SQLite)
	require.NoError(t, err)
	assert.NotContains(t, stmt, "DROP")
	assert.Equal(t, []any{"'; DROP TABLE posts; --"}, args)
}

func TestSQL_NoFilter(t *testing.T) {
	b := postBuilder(t)
	b.Select("id", "title")

	stmt, args, err := b.SQL(SQLite)
	require.NoError(t, err)
	assert.Equal(t, `SELECT t0."id", t0."title" FROM "posts" AS t0 ORDER BY t0."id" ASC`, stmt)
	assert.Empty(t, args)
}

func TestSQL_EdgeNodes(t *testing.T) {
	b := postBuilder(t)
	b.WhereIn("id", nil)
	b.OrWhereEqual("author_id", nil)
	b.add(BooleanOr, Range("created_at", 1, 5, false))

	stmt, args, err := b.CountSQL(MySQL)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM `posts` AS t0 WHERE (1 = 0 OR t0.`author_id` IS NULL OR (t0.`created_at` > ? AND t0.`created_at` < ?))", stmt)
	assert.Equal(t, []any{1, 5}, args)
}

func TestSQL_NeedsEntity(t *testing.T) {
	_, _, err := NewBuilder(nil, nil).SQL(SQLite)
	assert.ErrorContains(t, err, "no entity")

	_, _, err = NewAggregate("idx").With(Count("n")).SQL(SQLite)
	assert.ErrorContains(t, err, "needs a source builder")
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{"sqlite3": SQLite, "mysql": MySQL, "pgx": Postgres} {
		got, err := ParseDialect(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDialect("oracle")
	assert.Error(t, err)
}
