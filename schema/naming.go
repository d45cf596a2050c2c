package schema

import (
	"github.com/gobeam/stringy"
	"github.com/jinzhu/inflection"
)

// Snake converts CamelCase / camelCase / kebab-case to snake_case.
func Snake(s string) string {
	if s == "" {
		return ""
	}
	return stringy.New(s).SnakeCase().ToLower()
}

// SnakeSingular is the default parameter prefix for a relation:
// "Comments" → "comment", "blogPosts" → "blog_post".
func SnakeSingular(s string) string {
	return inflection.Singular(Snake(s))
}

// SnakePlural is the default table name for an entity: "BlogPost" → "blog_posts".
func SnakePlural(s string) string {
	return inflection.Plural(Snake(s))
}
