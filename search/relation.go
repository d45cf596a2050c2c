package search

import (
	"go.uber.org/zap"

	"github.com/manojoshi/paramsearch/internal"
	"github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/schema"
)

// pass is the state of one top-level call. visited is never shared
// between calls.
type pass struct {
	searcher  *Searcher
	relations bool
	combine   query.Boolean
	visited   map[string]struct{}
}

// step is one planned relation subquery.
type step struct {
	relation string
	join     query.Boolean
	target   *schema.Entity
	cfg      Config
	params   Params
	freeText bool
}

// apply emits the field group of e and its relation subqueries into b.
// p is already extracted for e.
//
// Free-text relations are OR-joined inside the field group so a related
// match alone satisfies the search; filtered relations are AND-joined
// after it.
func (ps *pass) apply(b Builder, e *schema.Entity, cfg Config, p Params, freeText bool) error {
	c := Classify(p, cfg.tableFields(e), cfg.Fuzzy, freeText)
	ps.searcher.log.Debug("classified fields",
		zap.String("entity", e.Name),
		zap.Strings("exact", c.Exact),
		zap.Strings("fuzzy", c.Fuzzy),
		zap.Bool("free_text", c.FreeText),
	)

	var steps []step
	if ps.relations {
		var err error
		if steps, err = ps.plan(e, cfg, p, c.FreeText); err != nil {
			return err
		}
	}

	var err error
	b.Where(func(g Builder) {
		BuildPredicates(g, p, c, ps.combine, cfg.Pattern)
		for _, st := range steps {
			if st.join == query.BooleanOr {
				ps.join(g, st, &err)
			}
		}
	})
	for _, st := range steps {
		if st.join == query.BooleanAnd {
			ps.join(b, st, &err)
		}
	}
	return err
}

// join builds the related group first and skips the relation when the
// group comes out empty, so no bare existence test is emitted.
func (ps *pass) join(b Builder, st step, errp *error) {
	sub := query.NewBuilder(st.target, ps.searcher.registry)
	err := ps.apply(sub, st.target, st.cfg, st.params, st.freeText)
	if err == nil {
		err = sub.Err()
	}
	if err != nil {
		if *errp == nil {
			*errp = err
		}
		return
	}
	x := sub.Expr()
	if x == nil {
		ps.searcher.log.Debug("relation group is empty", zap.String("relation", st.relation))
		return
	}
	b.WhereHas(st.relation, st.join, func(h Builder) { h.WhereExpr(x) })
}

// plan decides, relation by relation, how each allowed relation joins.
// Planning happens before anything is emitted so a bad relation leaves the
// builder untouched at this level.
func (ps *pass) plan(e *schema.Entity, cfg Config, p Params, freeText bool) ([]step, error) {
	reg := ps.searcher.registry
	var steps []step
	for _, r := range cfg.Relations {
		_, target, ok := reg.Resolve(e.Name, r)
		if !ok {
			return nil, newError(ErrUnknownRelation, e.Name, "relation %q does not resolve", r)
		}
		tcfg, _ := ps.searcher.Config(target.Name)
		prefix := cfg.prefixFor(r)

		_, seen := ps.visited[target.Name]
		if freeText && internal.Contains(cfg.FreeTextRelations, r) && !seen {
			ps.visited[target.Name] = struct{}{}
			steps = append(steps, step{
				relation: r, join: query.BooleanOr, target: target, cfg: tcfg,
				params: Extract(p, tcfg.Excluded, prefix, true), freeText: true,
			})
			continue
		}
		if sub := Extract(p, tcfg.Excluded, prefix, false); len(sub) > 0 {
			steps = append(steps, step{
				relation: r, join: query.BooleanAnd, target: target, cfg: tcfg,
				params: sub, freeText: false,
			})
		}
	}
	return steps, nil
}
