package search

import (
	"github.com/manojoshi/paramsearch/internal"
	"github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/schema"
)

// Config is the per-entity search policy. It is registered once with a
// Searcher and treated as read-only afterwards.
type Config struct {
	// Entity names the schema entity this configuration belongs to.
	Entity string `yaml:"entity"`
	// Excluded keys are dropped from params and their fields never probed.
	Excluded []string `yaml:"excluded"`
	// Fuzzy fields are matched with LIKE patterns instead of equality.
	Fuzzy []string `yaml:"fuzzy"`
	// Relations may be filtered through "<prefix>_<field>" params.
	Relations []string `yaml:"relations"`
	// FreeTextRelations also take part in "q" free-text search. Subset of Relations.
	FreeTextRelations []string `yaml:"free_text_relations"`
	// RelationPrefixes overrides the default snake_singular(relation) prefix.
	RelationPrefixes map[string]string `yaml:"relation_prefixes"`
	// Pattern selects how fuzzy literals become LIKE patterns.
	Pattern query.PatternMode `yaml:"-"`
}

// Validate checks c against its entity. Failures are programmer errors and
// wrap ErrConfiguration.
func (c Config) Validate(e *schema.Entity) error {
	if e == nil {
		return newError(ErrUnknownEntity, c.Entity, "not registered")
	}
	for _, f := range c.Fuzzy {
		if !e.HasField(f) {
			return newError(ErrConfiguration, e.Name, "fuzzy field %q is not a field", f)
		}
	}
	for _, r := range c.Relations {
		if _, ok := e.Relation(r); !ok {
			return newError(ErrConfiguration, e.Name, "relation %q is not declared", r)
		}
	}
	for _, r := range c.FreeTextRelations {
		if !internal.Contains(c.Relations, r) {
			return newError(ErrConfiguration, e.Name, "free-text relation %q is not in relations", r)
		}
	}
	for r, p := range c.RelationPrefixes {
		if !internal.Contains(c.Relations, r) {
			return newError(ErrConfiguration, e.Name, "prefix given for relation %q which is not in relations", r)
		}
		if p == "" {
			return newError(ErrConfiguration, e.Name, "empty prefix for relation %q", r)
		}
	}
	return nil
}

// prefixFor returns the parameter namespace of relation r.
func (c Config) prefixFor(r string) string {
	if p, ok := c.RelationPrefixes[r]; ok {
		return p
	}
	return schema.SnakeSingular(r)
}

// tableFields are the entity fields a search may probe.
func (c Config) tableFields(e *schema.Entity) []string {
	return internal.Difference(e.FieldNames(), c.Excluded)
}

func (c Config) clone() Config {
	out := c
	out.Excluded = append([]string(nil), c.Excluded...)
	out.Fuzzy = append([]string(nil), c.Fuzzy...)
	out.Relations = append([]string(nil), c.Relations...)
	out.FreeTextRelations = append([]string(nil), c.FreeTextRelations...)
	if c.RelationPrefixes != nil {
		out.RelationPrefixes = make(map[string]string, len(c.RelationPrefixes))
		for k, v := range c.RelationPrefixes {
			out.RelationPrefixes[k] = v
		}
	}
	return out
}
