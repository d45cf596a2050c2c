package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/paramsearch/schema"
)

var authorRel = schema.Relation{Name: "author", Kind: schema.ToOne, Target: "author", LocalKey: "author_id", RemoteKey: "id"}

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		in   Expr
		want string
	}{
		{"nil", nil, "*"},
		{"tag and in", And(Eq("status", "open"), In("tags", "go", "db")), "(@status:{open} @tags:{go|db})"},
		{"or", Or(Eq("a", 1), Eq("b", 2)), "(@a:{1}|@b:{2})"},
		{"tag escaping", Eq("email", "a@b.com"), `@email:{a\@b\.com}`},
		{"fuzzy", Like("title", Pattern("go", PatternGaps)), "@title:(w'*g*o*')"},
		{"escaped wildcard is literal", Like("t", Pattern("50%", PatternSubstring)), "@t:(w'*50%*')"},
		{"quote escaped", Like("t", "%it's%"), `@t:(w'*it\'s*')`},
		{"inclusive range", Range("price", 10, 100, true), "@price:[10 100]"},
		{"open exclusive range", Range("created_at", 10, nil, false), "@created_at:[(10 +inf]"},
		{"time bound", Range("created_at", time.Unix(1700000000, 0), nil, true), "@created_at:[1700000000 +inf]"},
		{"not", Not(Eq("a", 1)), "-(@a:{1})"},
		{"has", Has(authorRel, "authors", Eq("name", "ann")), "(@author_name:{ann})"},
		{"has any", Has(authorRel, "authors", nil), "-ismissing(@author_id)"},
		{"match all", MatchAll(), "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compile(tt.in))
		})
	}
}

func TestCompileFor_FieldTypes(t *testing.T) {
	reg := blogRegistry(t)
	post, ok := reg.Entity("post")
	require.True(t, ok)

	tests := []struct {
		name string
		in   Expr
		want string
	}{
		{"numeric eq", Eq("author_id", 7), "@author_id:[7 7]"},
		{"numeric eq from string", Eq("author_id", "7"), "@author_id:[7 7]"},
		{"numeric eq not a number", Eq("id", "ann"), "(@id:[-inf +inf] -@id:[-inf +inf])"},
		{"numeric in", In("author_id", 1, "2", "x"), "(@author_id:[1 1]|@author_id:[2 2])"},
		{"numeric in without numbers", In("id", "x"), "(@id:[-inf +inf] -@id:[-inf +inf])"},
		{"numeric like", Like("id", "%1%"), "(@id:[-inf +inf] -@id:[-inf +inf])"},
		{"text eq is a phrase", Eq("title", `say "hi"`), `@title:"say \"hi\""`},
		{"text in", In("title", "go", "rust"), `@title:("go"|"rust")`},
		{"text like", Like("title", "%go%"), "@title:(w'*go*')"},
		{"tag eq", Eq("status", "open"), "@status:{open}"},
		{"tag like", Like("status", "op%"), "@status:{w'op*'}"},
		{"unknown field is a tag", Eq("flag", "x"), "@flag:{x}"},
		{"mixed or", Or(Eq("author_id", 7), Eq("title", "hello")), `(@author_id:[7 7]|@title:"hello")`},
		{"has uses target types", Has(authorRel, "authors", And(Eq("name", "ann"), Eq("email", "a@b.com"), Eq("id", 3))),
			`((@author_name:"ann" @author_email:{a\@b\.com} @author_id:[3 3]))`},
		{"has tag like", Has(authorRel, "authors", Like("email", "%@x.io")), `(@author_email:{w'*@x.io'})`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompileFor(tt.in, post, reg))
		})
	}
}

func TestSearchBuilder_TypedWhere(t *testing.T) {
	b := postBuilder(t)
	b.WhereEqual("author_id", 7)
	b.OrWhereEqual("title", "hello")

	args, err := b.Search("post_idx").RawArgs()
	require.NoError(t, err)
	assert.Equal(t, `((@author_id:[7 7]|@title:"hello"))`, args[2])

	args, err = b.Aggregate("post_idx").Reduce("count", "", "n").RawArgs()
	require.NoError(t, err)
	assert.Equal(t, `((@author_id:[7 7]|@title:"hello"))`, args[2])
}

func TestSearchBuilder_FromBuilder(t *testing.T) {
	b := postBuilder(t)
	b.WhereEqual("status", "open")
	b.OrderBy("created_at", Desc)
	b.OrderBy("id", Asc)
	b.Limit(10, 5)

	args, err := b.Search("post_idx").RawArgs()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		"FT.SEARCH", "post_idx", "(@status:{open})",
		"SORTBY", "created_at", "DESC",
		"LIMIT", "10", "5",
		"DIALECT", "2",
	}, args)
}

func TestSearchBuilder_Run(t *testing.T) {
	var sent []interface{}
	exec := execFunc(func(_ context.Context, args ...interface{}) (any, error) {
		sent = args
		return []interface{}{int64(1), "post:1", []interface{}{"title", "Hi"}}, nil
	})

	rows, total, err := NewSearch("post_idx").Select("title").Using(exec).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Hi", rows[0]["title"])
	assert.Equal(t, []interface{}{"FT.SEARCH", "post_idx", "*", "RETURN", "1", "title", "LIMIT", "0", "10000", "DIALECT", "2"}, sent)
}

func TestSearchBuilder_RunWithoutExecutor(t *testing.T) {
	_, _, err := NewSearch("post_idx").Run(context.Background())
	assert.ErrorContains(t, err, "executor not set")
}

func TestAggregateBuilder_RawArgs(t *testing.T) {
	args, err := NewAggregate("post_idx").
		GroupBy(Bucket("created_at", Day), By("status")).
		Reduce("count", "", "n").
		Limit(0, 10).
		RawArgs()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		"FT.AGGREGATE", "post_idx", "*",
		"APPLY", "day(@created_at)", "AS", "created_at_day",
		"GROUPBY", "2", "@created_at_day", "@status",
		"REDUCE", "COUNT", "0", "AS", "n",
		"LIMIT", "0", "10",
		"DIALECT", "2",
	}, args)
}

func TestAggregateBuilder_Validation(t *testing.T) {
	_, err := NewAggregate("post_idx").RawArgs()
	assert.ErrorContains(t, err, "needs a group key or a reducer")

	_, err = NewAggregate("post_idx").With(Sum("", "total")).RawArgs()
	assert.ErrorContains(t, err, "needs a field")

	_, err = NewAggregate("post_idx").Reduce("median", "qty", "m").RawArgs()
	assert.ErrorContains(t, err, "unsupported reducer")
}
