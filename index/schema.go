// Package index turns entity descriptors into RediSearch FT.CREATE statements.
// A single public entry-point, `AutoCreate`, checks whether an index exists
// and creates it if missing.
//
// Related entities are denormalized onto the parent document: for every
// relation R of the entity, each field f of R's target is declared as the
// attribute "R_f". The join key is declared with INDEXMISSING so that an
// existence check compiles to -ismissing(@R_key).
//
//	post, _ := reg.Entity("post")
//	if err := index.AutoCreate(ctx, conn, post, reg,
//	    index.WithName("post_idx"),
//	    index.WithPrefixes("post:"),
//	); err != nil {
//	    log.Fatal(err)
//	}
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/manojoshi/paramsearch/driver"
	"github.com/manojoshi/paramsearch/schema"
)

// ------------------------------------------------------------------
// Options
// ------------------------------------------------------------------

type CreateOpt func(*createCfg)

type createCfg struct {
	name      string   // FT index name
	prefixes  []string // HASH/JSON key prefixes
	onJson    bool     // ON JSON (default: HASH)
	stopwords []string
	depth     int // relation hops to denormalize
}

func WithName(name string) CreateOpt          { return func(c *createCfg) { c.name = name } }
func WithPrefixes(p ...string) CreateOpt      { return func(c *createCfg) { c.prefixes = p } }
func OnJSON() CreateOpt                       { return func(c *createCfg) { c.onJson = true } }
func WithStopwords(words ...string) CreateOpt { return func(c *createCfg) { c.stopwords = words } }

// WithDepth sets how many relation hops are flattened into the document.
// Zero indexes the entity's own fields only.
func WithDepth(n int) CreateOpt { return func(c *createCfg) { c.depth = n } }

// Entities is the part of the schema registry index generation needs.
type Entities interface {
	Entity(name string) (*schema.Entity, bool)
}

// ------------------------------------------------------------------
// Public API
// ------------------------------------------------------------------

// AutoCreate builds a schema from the entity descriptor and invokes
// FT.CREATE. It is safe to call concurrently – Redis will just return an
// error we ignore when the index already exists.
func AutoCreate(
	ctx context.Context,
	exec driver.Executor,
	e *schema.Entity,
	reg Entities,
	opts ...CreateOpt,
) error {
	args, err := CreateArgs(e, reg, opts...)
	if err != nil {
		return err
	}
	if _, err := exec.Do(ctx, args...); err != nil && !alreadyExists(err) {
		return fmt.Errorf("index: FT.CREATE %s failed: %w", args[1], err)
	}
	return nil
}

// CreateArgs returns the complete FT.CREATE command for e.
func CreateArgs(e *schema.Entity, reg Entities, opts ...CreateOpt) ([]interface{}, error) {
	if e == nil {
		return nil, fmt.Errorf("index: entity is required")
	}
	cfg := &createCfg{name: Name(e), prefixes: []string{e.Name + ":"}, depth: 1}
	for _, o := range opts {
		o(cfg)
	}

	schemaArgs, err := BuildSchema(e, reg, cfg.depth)
	if err != nil {
		return nil, err
	}
	args := []interface{}{"FT.CREATE", cfg.name}
	if cfg.onJson {
		args = append(args, "ON", "JSON")
	}
	if len(cfg.prefixes) > 0 {
		args = append(args, "PREFIX", len(cfg.prefixes))
		for _, p := range cfg.prefixes {
			args = append(args, p)
		}
	}
	if len(cfg.stopwords) > 0 {
		args = append(args, "STOPWORDS", len(cfg.stopwords))
		for _, s := range cfg.stopwords {
			args = append(args, s)
		}
	}
	args = append(args, "SCHEMA")
	args = append(args, schemaArgs...)
	return args, nil
}

// BuildSchema returns the tail of the SCHEMA clause: the entity's own fields
// followed by the denormalized attributes of its relations, depth hops deep.
// Relations are visited in name order so the output is stable. When a
// denormalized name collides with an attribute already declared (a
// belongs-to foreign key named "<relation>_id"), the first declaration is
// kept.
func BuildSchema(e *schema.Entity, reg Entities, depth int) ([]interface{}, error) {
	var attrs []attr
	for _, f := range e.Fields {
		attrs = append(attrs, attr{name: f.Name, field: f})
	}
	rel, err := relationAttrs(e, reg, "", depth)
	if err != nil {
		return nil, err
	}

	pos := make(map[string]int, len(attrs)+len(rel))
	for i, a := range attrs {
		pos[a.name] = i
	}
	for _, a := range rel {
		if i, dup := pos[a.name]; dup {
			attrs[i].missing = attrs[i].missing || a.missing
			continue
		}
		pos[a.name] = len(attrs)
		attrs = append(attrs, a)
	}

	var out []interface{}
	for _, a := range attrs {
		out = a.appendTo(out)
	}
	return out, nil
}

func alreadyExists(err error) bool {
	return errors.Is(err, driver.ErrIndexExists) || strings.Contains(err.Error(), "Index already exists")
}

// Name defaults to the entity name + "_idx".
func Name(e *schema.Entity) string { return e.Name + "_idx" }

type attr struct {
	name    string
	field   schema.Field
	missing bool // INDEXMISSING
}

func (a attr) appendTo(out []interface{}) []interface{} {
	out = append(out, a.name, a.field.Type.String())
	if a.missing {
		out = append(out, "INDEXMISSING")
	}
	if a.field.Sortable {
		out = append(out, "SORTABLE")
	}
	if a.field.NoIndex {
		out = append(out, "NOINDEX")
	}
	return out
}

func relationAttrs(e *schema.Entity, reg Entities, prefix string, depth int) ([]attr, error) {
	if depth <= 0 || len(e.Relations) == 0 {
		return nil, nil
	}
	if reg == nil {
		return nil, fmt.Errorf("index: entity %q has relations but no registry was given", e.Name)
	}

	names := make([]string, 0, len(e.Relations))
	for n := range e.Relations {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []attr
	for _, n := range names {
		r := e.Relations[n]
		target, ok := reg.Entity(r.Target)
		if !ok {
			return nil, fmt.Errorf("index: relation %q of %q targets unknown entity %q", n, e.Name, r.Target)
		}
		p := prefix + r.Name + "_"

		key, ok := target.Field(r.RemoteKey)
		if !ok {
			key = schema.Field{Name: r.RemoteKey, Type: schema.Tag}
		}
		out = append(out, attr{name: p + key.Name, field: key, missing: true})
		for _, f := range target.Fields {
			if f.Name == r.RemoteKey {
				continue
			}
			out = append(out, attr{name: p + f.Name, field: f})
		}

		nested, err := relationAttrs(target, reg, p, depth-1)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}
