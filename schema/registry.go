package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the static catalogue of entities and their relations.
// Register everything at startup; lookups are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewRegistry builds a registry from the given entities, then checks that
// every relation points at a registered target.
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	if err := r.Check(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds one entity. Relation targets may be registered later; call
// Check once the catalogue is complete.
func (r *Registry) Register(e Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entities == nil {
		r.entities = make(map[string]*Entity)
	}
	if _, dup := r.entities[e.Name]; dup {
		return fmt.Errorf("schema: entity %q already registered", e.Name)
	}
	cp := e
	cp.Fields = append([]Field(nil), e.Fields...)
	cp.Relations = make(map[string]Relation, len(e.Relations))
	for k, v := range e.Relations {
		cp.Relations[k] = v
	}
	r.entities[e.Name] = &cp
	return nil
}

// Check verifies every relation targets a registered entity.
func (r *Registry) Check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.namesLocked() {
		e := r.entities[name]
		for _, rel := range e.Relations {
			if _, ok := r.entities[rel.Target]; !ok {
				return fmt.Errorf("schema: entity %q: relation %q targets unknown entity %q", name, rel.Name, rel.Target)
			}
		}
	}
	return nil
}

// Entity returns the descriptor for name. The result must not be modified.
func (r *Registry) Entity(name string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[name]
	return e, ok
}

// Names lists the registered entities, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	out := make([]string, 0, len(r.entities))
	for n := range r.entities {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// EntityExists reports whether name is registered.
func (r *Registry) EntityExists(name string) bool {
	_, ok := r.Entity(name)
	return ok
}

// FieldsOf returns the field names of entity, or nil when it is unknown.
func (r *Registry) FieldsOf(entity string) []string {
	e, ok := r.Entity(entity)
	if !ok {
		return nil
	}
	return e.FieldNames()
}

// HasField reports whether field belongs to entity.
func (r *Registry) HasField(entity, field string) bool {
	e, ok := r.Entity(entity)
	return ok && e.HasField(field)
}

// IsValidRelation reports whether relation is declared on entity and leads to
// a registered entity.
func (r *Registry) IsValidRelation(entity, relation string) bool {
	_, ok := r.RelatedEntityOf(entity, relation)
	return ok
}

// RelatedEntityOf returns the name of the entity relation points at.
func (r *Registry) RelatedEntityOf(entity, relation string) (string, bool) {
	e, ok := r.Entity(entity)
	if !ok {
		return "", false
	}
	rel, ok := e.Relation(relation)
	if !ok || !r.EntityExists(rel.Target) {
		return "", false
	}
	return rel.Target, true
}

// Resolve returns the relation metadata together with the target descriptor.
func (r *Registry) Resolve(entity, relation string) (Relation, *Entity, bool) {
	e, ok := r.Entity(entity)
	if !ok {
		return Relation{}, nil, false
	}
	rel, ok := e.Relation(relation)
	if !ok {
		return Relation{}, nil, false
	}
	target, ok := r.Entity(rel.Target)
	if !ok {
		return Relation{}, nil, false
	}
	return rel, target, true
}
