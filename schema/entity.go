// Package schema describes the entities a search may target: their fields and
// the relations between them. It plays two collaborator roles for the search
// pipeline, field introspection ("which fields does E have?") and relation
// resolution ("is R a link on E, and where does it lead?").
//
// Entities are declared once at startup, either explicitly or from a tagged
// struct, and are read-only afterwards:
//
//	type Post struct {
//	    ID     int64  `search:"@id,NUMERIC,SORTABLE"`
//	    Title  string `search:"@title,TEXT"`
//	    Status string `search:"@status,TAG"`
//	}
//
//	post, err := schema.FromModel(Post{},
//	    schema.BelongsTo("author", "user", "author_id"),
//	    schema.HasMany("comments", "comment", "post_id"),
//	)
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType mirrors the RediSearch field kinds; SQL backends ignore it.
type FieldType int

const (
	Text FieldType = iota
	Tag
	Numeric
	Geo
)

func (t FieldType) String() string {
	switch t {
	case Tag:
		return "TAG"
	case Numeric:
		return "NUMERIC"
	case Geo:
		return "GEO"
	default:
		return "TEXT"
	}
}

// ParseFieldType accepts TEXT, TAG, NUMERIC or GEO in any case.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TEXT":
		return Text, nil
	case "TAG":
		return Tag, nil
	case "NUMERIC":
		return Numeric, nil
	case "GEO":
		return Geo, nil
	}
	return Text, fmt.Errorf("schema: unknown field type %q", s)
}

// Field is one searchable column / document attribute.
type Field struct {
	Name     string
	Type     FieldType
	Sortable bool
	NoIndex  bool
}

// RelationKind distinguishes single-valued from multi-valued links.
type RelationKind int

const (
	ToOne RelationKind = iota
	ToMany
)

func (k RelationKind) String() string {
	if k == ToMany {
		return "to_many"
	}
	return "to_one"
}

// ParseRelationKind accepts to_one / belongs_to / has_one and to_many / has_many.
func ParseRelationKind(s string) (RelationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "to_one", "belongs_to", "has_one":
		return ToOne, nil
	case "to_many", "has_many":
		return ToMany, nil
	}
	return ToOne, fmt.Errorf("schema: unknown relation kind %q", s)
}

// Relation links an entity to a target entity. A related row matches its parent
// when target.RemoteKey = parent.LocalKey.
type Relation struct {
	Name      string
	Kind      RelationKind
	Target    string
	LocalKey  string
	RemoteKey string
}

// Entity is the descriptor of one queryable entity.
type Entity struct {
	Name       string
	Table      string
	PrimaryKey string
	Fields     []Field
	Relations  map[string]Relation
}

// FieldNames returns the field names in declaration order.
func (e *Entity) FieldNames() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Name
	}
	return out
}

// Field looks up a field by name.
func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasField reports whether name is a field of e.
func (e *Entity) HasField(name string) bool {
	_, ok := e.Field(name)
	return ok
}

// Relation looks up a declared relation by name.
func (e *Entity) Relation(name string) (Relation, bool) {
	r, ok := e.Relations[name]
	return r, ok
}

// Validate checks the descriptor is internally consistent. Relation targets
// are checked by the Registry, which knows the other entities.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return errors.New("schema: entity name is required")
	}
	if e.Table == "" {
		return fmt.Errorf("schema: entity %q: table is required", e.Name)
	}
	if len(e.Fields) == 0 {
		return fmt.Errorf("schema: entity %q: at least one field is required", e.Name)
	}
	seen := make(map[string]bool, len(e.Fields))
	for i, f := range e.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema: entity %q: field name is required at index %d", e.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema: entity %q: duplicate field %q", e.Name, f.Name)
		}
		seen[f.Name] = true
	}
	for name, r := range e.Relations {
		if name == "" || r.Name != name {
			return fmt.Errorf("schema: entity %q: relation %q is keyed as %q", e.Name, r.Name, name)
		}
		if r.Target == "" || r.LocalKey == "" || r.RemoteKey == "" {
			return fmt.Errorf("schema: entity %q: relation %q needs target, local and remote keys", e.Name, name)
		}
		if seen[name] {
			return fmt.Errorf("schema: entity %q: relation %q shadows a field", e.Name, name)
		}
	}
	return nil
}
