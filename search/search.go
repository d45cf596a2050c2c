// Package search translates a flat parameter mapping into predicates,
// sorts and relation subqueries on a query builder.
//
//	reg, _ := schema.NewRegistry(post, author)
//	s := search.NewSearcher(reg)
//	_ = s.Register(search.Config{
//	    Entity:            "post",
//	    Fuzzy:             []string{"title"},
//	    Relations:         []string{"author"},
//	    FreeTextRelations: []string{"author"},
//	})
//
//	params, _ := search.FromRequest(r)
//	b := query.NewBuilder(postEntity, reg)
//	if err := s.SearchWithRelations(b, params, "post"); err != nil { ... }
//	stmt, args, _ := b.SQL(query.SQLite)
//
// The pipeline per entity is Extract → Classify → BuildPredicates →
// ApplySort, with the relation cascade between the last two. The core does
// no I/O; executing the built query is the caller's job.
package search

import (
	"sync"

	"go.uber.org/zap"

	"github.com/manojoshi/paramsearch/internal"
	"github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/schema"
)

// Searcher holds the registered per-entity configurations. Register
// everything at startup; Search is safe for concurrent use.
type Searcher struct {
	registry *schema.Registry
	log      *zap.Logger

	mu      sync.RWMutex
	configs map[string]Config
}

func NewSearcher(registry *schema.Registry, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		registry: registry,
		log:      zap.NewNop(),
		configs:  make(map[string]Config),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Registry returns the schema registry the Searcher resolves against.
func (s *Searcher) Registry() *schema.Registry { return s.registry }

// Register validates and stores configurations, replacing any previous
// configuration of the same entity.
func (s *Searcher) Register(cfgs ...Config) error {
	for _, c := range cfgs {
		e, ok := s.registry.Entity(c.Entity)
		if !ok {
			return newError(ErrUnknownEntity, c.Entity, "not registered in schema")
		}
		if err := c.Validate(e); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cfgs {
		s.configs[c.Entity] = c.clone()
	}
	return nil
}

// Config returns the registered configuration of entity, or a zero Config
// naming it.
func (s *Searcher) Config(entity string) (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.configs[entity]
	if !ok {
		return Config{Entity: entity}, false
	}
	return c, true
}

// NewBuilder starts an empty query on entity, resolving relations through
// the Searcher's registry.
func (s *Searcher) NewBuilder(entity string) (*query.Builder, error) {
	e, ok := s.registry.Entity(entity)
	if !ok {
		return nil, newError(ErrUnknownEntity, entity, "not registered in schema")
	}
	return query.NewBuilder(e, s.registry), nil
}

// Search applies params to b for entity without relation cascading.
func (s *Searcher) Search(b Builder, params Params, entity string, opts ...Option) error {
	return s.run(b, params, entity, false, opts)
}

// SearchWithRelations also cascades into the entity's allowed relations.
func (s *Searcher) SearchWithRelations(b Builder, params Params, entity string, opts ...Option) error {
	return s.run(b, params, entity, true, opts)
}

func (s *Searcher) run(b Builder, params Params, entity string, relations bool, opts []Option) error {
	e, ok := s.registry.Entity(entity)
	if !ok {
		return newError(ErrUnknownEntity, entity, "not registered in schema")
	}
	cfg, _ := s.Config(entity)

	o := defaultCallOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.relations != nil {
		cfg = cfg.clone()
		cfg.Relations, cfg.FreeTextRelations = o.relations.allowed, o.relations.freeText
		for _, r := range cfg.FreeTextRelations {
			if !internal.Contains(cfg.Relations, r) {
				return newError(ErrConfiguration, entity, "free-text relation %q is not in relations", r)
			}
		}
	}

	p := Extract(params, cfg.Excluded, o.prefix, o.freeText)
	st := &pass{
		searcher:  s,
		relations: relations,
		combine:   o.combine,
		visited:   map[string]struct{}{e.Name: {}},
	}
	if err := st.apply(b, e, cfg, p, o.freeText); err != nil {
		return err
	}
	ApplySort(b, p, cfg.tableFields(e))
	return nil
}
