package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// TagName is the struct tag FromModel reads:
//
//	`search:"@field,TAG,SORTABLE"`
//
// The leading "@" is optional. Untagged fields and `search:"-"` are skipped.
const TagName = "search"

// Option adjusts an Entity built by FromModel.
type Option func(*Entity)

// WithName overrides the entity name (default: snake_case of the type name).
func WithName(name string) Option { return func(e *Entity) { e.Name = name } }

// WithTable overrides the table name (default: plural of the entity name).
func WithTable(table string) Option { return func(e *Entity) { e.Table = table } }

// WithPrimaryKey overrides the primary key (default: "id").
func WithPrimaryKey(pk string) Option { return func(e *Entity) { e.PrimaryKey = pk } }

// HasMany declares a to-many relation: target.foreignKey = this.primaryKey.
func HasMany(name, target, foreignKey string) Option {
	return func(e *Entity) {
		e.addRelation(Relation{Name: name, Kind: ToMany, Target: target, RemoteKey: foreignKey})
	}
}

// HasOne declares a to-one relation owned by the target: target.foreignKey = this.primaryKey.
func HasOne(name, target, foreignKey string) Option {
	return func(e *Entity) {
		e.addRelation(Relation{Name: name, Kind: ToOne, Target: target, RemoteKey: foreignKey})
	}
}

// BelongsTo declares a to-one relation owned by this entity: target.id = this.foreignKey.
func BelongsTo(name, target, foreignKey string) Option {
	return func(e *Entity) {
		e.addRelation(Relation{Name: name, Kind: ToOne, Target: target, LocalKey: foreignKey, RemoteKey: "id"})
	}
}

func (e *Entity) addRelation(r Relation) {
	if e.Relations == nil {
		e.Relations = make(map[string]Relation)
	}
	e.Relations[r.Name] = r
}

// FromModel inspects the `search` struct tags of model and returns its Entity.
// Relations declared with HasMany / HasOne join on the final primary key,
// whatever the option order.
func FromModel(model any, opts ...Option) (Entity, error) {
	rt := reflect.TypeOf(model)
	if rt == nil {
		return Entity{}, fmt.Errorf("schema: nil model")
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return Entity{}, fmt.Errorf("schema: model must be a struct, got %s", rt.Kind())
	}

	fields, err := parseFields(rt)
	if err != nil {
		return Entity{}, err
	}

	e := Entity{Name: Snake(rt.Name()), PrimaryKey: "id", Fields: fields}
	for _, o := range opts {
		o(&e)
	}
	if e.Table == "" {
		e.Table = SnakePlural(e.Name)
	}
	for name, r := range e.Relations {
		if r.LocalKey == "" {
			r.LocalKey = e.PrimaryKey
			e.Relations[name] = r
		}
	}

	if err := e.Validate(); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// MustFromModel is FromModel that panics on error, for package-level declarations.
func MustFromModel(model any, opts ...Option) Entity {
	e, err := FromModel(model, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func parseFields(rt reflect.Type) ([]Field, error) {
	var out []Field
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, ok := FieldName(f)
		if !ok {
			continue
		}
		field := Field{Name: name}

		parts := strings.Split(f.Tag.Get(TagName), ",")
		for _, a := range parts[1:] {
			switch attr := strings.ToUpper(strings.TrimSpace(a)); attr {
			case "TEXT", "TAG", "NUMERIC", "GEO":
				field.Type, _ = ParseFieldType(attr)
			case "SORTABLE":
				field.Sortable = true
			case "NOINDEX", "PK":
				field.NoIndex = true
			case "":
			default:
				return nil, fmt.Errorf("schema: %s.%s: unknown tag attribute %q", rt.Name(), f.Name, a)
			}
		}
		out = append(out, field)
	}
	return out, nil
}

// FieldName returns the attribute name a tagged struct field maps to. It
// reports false for untagged fields and `search:"-"`.
func FieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get(TagName)
	if tag == "" || tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name = strings.TrimPrefix(strings.TrimSpace(name), "@"); name == "" {
		name = Snake(f.Name)
	}
	return name, true
}
