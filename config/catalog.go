// Package config loads the entity catalogue: the schema of every searchable
// entity plus its search policy, from one YAML document.
//
//	entities:
//	  - name: post
//	    table: posts
//	    fields:
//	      - {name: id, type: numeric, sortable: true}
//	      - title
//	      - {name: status, type: tag}
//	      - author_id
//	    relations:
//	      author: {kind: belongs_to, target: user}
//	    search:
//	      fuzzy: [title]
//	      relations: [author]
//	      free_text_relations: [author]
//	      pattern: ${POST_PATTERN:-gaps}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/schema"
	"github.com/manojoshi/paramsearch/search"
)

// Catalog is the decoded YAML document.
type Catalog struct {
	Entities []EntityConfig `yaml:"entities"`
}

// EntityConfig declares one entity.
type EntityConfig struct {
	Name       string                    `yaml:"name"`
	Table      string                    `yaml:"table"`       // default: plural of name
	PrimaryKey string                    `yaml:"primary_key"` // default: id
	Fields     []FieldConfig             `yaml:"fields"`
	Relations  map[string]RelationConfig `yaml:"relations"`
	Search     SearchConfig              `yaml:"search"`
}

// FieldConfig is a field; a bare string is shorthand for a TEXT field.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // text, tag, numeric, geo (default: text)
	Sortable bool   `yaml:"sortable"`
	NoIndex  bool   `yaml:"noindex"`
}

// UnmarshalYAML accepts both "title" and {name: title, ...}.
func (f *FieldConfig) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		f.Name = n.Value
		return nil
	}
	type plain FieldConfig
	return n.Decode((*plain)(f))
}

// RelationConfig declares a link to another entity.
type RelationConfig struct {
	Kind      string `yaml:"kind"` // belongs_to (default), has_one, has_many
	Target    string `yaml:"target"`
	LocalKey  string `yaml:"local_key"`
	RemoteKey string `yaml:"remote_key"`
}

// SearchConfig is the search policy of an entity.
type SearchConfig struct {
	Excluded          []string          `yaml:"excluded"`
	Fuzzy             []string          `yaml:"fuzzy"`
	Relations         []string          `yaml:"relations"`
	FreeTextRelations []string          `yaml:"free_text_relations"`
	RelationPrefixes  map[string]string `yaml:"relation_prefixes"`
	Pattern           string            `yaml:"pattern"` // gaps (default) or substring
}

// Load reads a catalogue file, expands ${VAR} / ${VAR:-default} references,
// applies defaults and validates it.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (Catalog, error) {
	data = expandEnvVars(data)

	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// ApplyDefaults fills empty fields with default values. Relation keys
// default by kind: belongs_to joins target.<pk> = <relation>_id, has_one and
// has_many join target.<entity>_id = <pk>.
func (c *Catalog) ApplyDefaults() {
	pks := make(map[string]string, len(c.Entities))
	for i := range c.Entities {
		e := &c.Entities[i]
		if e.Table == "" {
			e.Table = schema.SnakePlural(e.Name)
		}
		if e.PrimaryKey == "" {
			e.PrimaryKey = "id"
		}
		for j := range e.Fields {
			if e.Fields[j].Type == "" {
				e.Fields[j].Type = "text"
			}
		}
		if e.Search.Pattern == "" {
			e.Search.Pattern = "gaps"
		}
		pks[e.Name] = e.PrimaryKey
	}

	for i := range c.Entities {
		e := &c.Entities[i]
		for name, r := range e.Relations {
			if r.Kind == "" {
				r.Kind = "belongs_to"
			}
			if r.Target == "" {
				r.Target = schema.SnakeSingular(name)
			}
			if owned(r.Kind) {
				if r.LocalKey == "" {
					r.LocalKey = schema.SnakeSingular(name) + "_id"
				}
				if r.RemoteKey == "" {
					r.RemoteKey = pkOr(pks, r.Target)
				}
			} else {
				if r.LocalKey == "" {
					r.LocalKey = e.PrimaryKey
				}
				if r.RemoteKey == "" {
					r.RemoteKey = schema.SnakeSingular(e.Name) + "_id"
				}
			}
			e.Relations[name] = r
		}
	}
}

// owned reports whether the relation's foreign key lives on the declaring
// entity.
func owned(kind string) bool {
	k := strings.ToLower(strings.TrimSpace(kind))
	return k == "belongs_to" || k == "to_one"
}

func pkOr(pks map[string]string, entity string) string {
	if pk, ok := pks[entity]; ok {
		return pk
	}
	return "id"
}

// Validate checks the catalogue for correctness. Cross-checks against the
// built schema (fuzzy fields exist, relation targets are declared) happen
// in Build.
func (c *Catalog) Validate() error {
	if len(c.Entities) == 0 {
		return fmt.Errorf("entities is required")
	}
	seen := make(map[string]bool, len(c.Entities))
	for i, e := range c.Entities {
		if e.Name == "" {
			return fmt.Errorf("entities[%d].name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("entities[%d]: duplicate entity %q", i, e.Name)
		}
		seen[e.Name] = true
		for j, f := range e.Fields {
			if _, err := schema.ParseFieldType(f.Type); err != nil {
				return fmt.Errorf("entities.%s.fields[%d]: %w", e.Name, j, err)
			}
		}
		for name, r := range e.Relations {
			if _, err := schema.ParseRelationKind(r.Kind); err != nil {
				return fmt.Errorf("entities.%s.relations.%s: %w", e.Name, name, err)
			}
		}
		if _, err := query.ParsePatternMode(e.Search.Pattern); err != nil {
			return fmt.Errorf("entities.%s.search.pattern: %w", e.Name, err)
		}
	}
	return nil
}

// Build turns the catalogue into a schema registry and the search
// configurations to register with a Searcher.
func (c *Catalog) Build() (*schema.Registry, []search.Config, error) {
	entities := make([]schema.Entity, 0, len(c.Entities))
	for _, ec := range c.Entities {
		e, err := ec.entity()
		if err != nil {
			return nil, nil, err
		}
		entities = append(entities, e)
	}
	reg, err := schema.NewRegistry(entities...)
	if err != nil {
		return nil, nil, err
	}

	cfgs := make([]search.Config, 0, len(c.Entities))
	for _, ec := range c.Entities {
		cfg, err := ec.searchConfig()
		if err != nil {
			return nil, nil, err
		}
		e, _ := reg.Entity(ec.Name)
		if err := cfg.Validate(e); err != nil {
			return nil, nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return reg, cfgs, nil
}

// Searcher builds the registry and a Searcher with every configuration
// registered.
func (c *Catalog) Searcher(opts ...search.SearcherOption) (*search.Searcher, error) {
	reg, cfgs, err := c.Build()
	if err != nil {
		return nil, err
	}
	s := search.NewSearcher(reg, opts...)
	if err := s.Register(cfgs...); err != nil {
		return nil, err
	}
	return s, nil
}

func (ec EntityConfig) entity() (schema.Entity, error) {
	e := schema.Entity{
		Name:       ec.Name,
		Table:      ec.Table,
		PrimaryKey: ec.PrimaryKey,
		Fields:     make([]schema.Field, 0, len(ec.Fields)),
	}
	for _, f := range ec.Fields {
		t, err := schema.ParseFieldType(f.Type)
		if err != nil {
			return schema.Entity{}, err
		}
		e.Fields = append(e.Fields, schema.Field{Name: f.Name, Type: t, Sortable: f.Sortable, NoIndex: f.NoIndex})
	}
	if len(ec.Relations) > 0 {
		e.Relations = make(map[string]schema.Relation, len(ec.Relations))
	}
	for name, r := range ec.Relations {
		kind, err := schema.ParseRelationKind(r.Kind)
		if err != nil {
			return schema.Entity{}, err
		}
		e.Relations[name] = schema.Relation{
			Name:      name,
			Kind:      kind,
			Target:    r.Target,
			LocalKey:  r.LocalKey,
			RemoteKey: r.RemoteKey,
		}
	}
	return e, nil
}

func (ec EntityConfig) searchConfig() (search.Config, error) {
	mode, err := query.ParsePatternMode(ec.Search.Pattern)
	if err != nil {
		return search.Config{}, err
	}
	return search.Config{
		Entity:            ec.Name,
		Excluded:          ec.Search.Excluded,
		Fuzzy:             ec.Search.Fuzzy,
		Relations:         ec.Search.Relations,
		FreeTextRelations: ec.Search.FreeTextRelations,
		RelationPrefixes:  ec.Search.RelationPrefixes,
		Pattern:           mode,
	}, nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
