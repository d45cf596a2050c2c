// Package repository is the façade callers inject everywhere: it runs the
// search pipeline for a parameter mapping and executes the resulting query
// on a backend (SQL or RediSearch). It follows the functional-options
// pattern so call sites stay terse.
//
//	repo := repository.New(searcher, repository.SQL(conn, query.SQLite))
//	page, err := repo.Find(ctx, "post", params,
//	    repository.Select("id", "title"),
//	    repository.SortDesc("created_at"),
//	    repository.Limit(0, 50),
//	)
package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/manojoshi/paramsearch/driver"
	"github.com/manojoshi/paramsearch/internal/logger"
	"github.com/manojoshi/paramsearch/metrics"
	q "github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/scan"
	"github.com/manojoshi/paramsearch/search"
)

// Repository binds a Searcher to one backend.
type Repository struct {
	searcher *search.Searcher
	backend  Backend
	log      *zap.Logger
}

// RepoOption configures a Repository.
type RepoOption func(*Repository)

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) RepoOption {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs a repository.
func New(s *search.Searcher, b Backend, opts ...RepoOption) *Repository {
	r := &Repository{searcher: s, backend: b, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Searcher returns the searcher the repository translates with.
func (r *Repository) Searcher() *search.Searcher { return r.searcher }

// -------------------------------------------------------------------
// FIND
// -------------------------------------------------------------------

// Find translates params into a query on entity (cascading into relations
// unless WithoutRelations is given) and executes it.
func (r *Repository) Find(
	ctx context.Context,
	entity string,
	params search.Params,
	opts ...Opt,
) (Page, error) {

	start := time.Now()
	b, err := r.build(entity, params, opts)
	if err != nil {
		return Page{}, r.fail(ctx, entity, "find", err)
	}

	page, err := r.backend.Find(ctx, b)
	if err != nil {
		return Page{}, r.fail(ctx, entity, "find", err)
	}

	r.logger(ctx).Debug("search executed",
		zap.String("entity", entity),
		zap.String("backend", r.backend.Name()),
		zap.String("statement", page.Statement),
		zap.Int("args", len(page.Args)),
		zap.Int("rows", len(page.Rows)),
		zap.Int64("total", page.Total),
	)
	metrics.ObserveSearch(entity, mode(params), r.backend.Name(), time.Since(start))
	return page, nil
}

// -------------------------------------------------------------------
// AGGREGATE
// -------------------------------------------------------------------

// Aggregate filters entity with params and groups the matches. Caller
// supplies group keys and reducers (Group, Count, Sum, ...).
func (r *Repository) Aggregate(
	ctx context.Context,
	entity string,
	params search.Params,
	opts ...Opt,
) ([]scan.Row, error) {

	start := time.Now()
	b, err := r.build(entity, params, opts)
	if err != nil {
		return nil, r.fail(ctx, entity, "aggregate", err)
	}

	ab := b.Aggregate(r.backend.Index(entity))
	for _, o := range opts {
		o.applyAgg(ab)
	}

	rows, err := r.backend.Aggregate(ctx, ab)
	if err != nil {
		return nil, r.fail(ctx, entity, "aggregate", err)
	}
	metrics.ObserveSearch(entity, "aggregate", r.backend.Name(), time.Since(start))
	return rows, nil
}

// Explain returns the statement Find would execute, without running it.
func (r *Repository) Explain(entity string, params search.Params, opts ...Opt) (string, []any, error) {
	b, err := r.build(entity, params, opts)
	if err != nil {
		return "", nil, err
	}
	return r.backend.Explain(b)
}

// build runs the search pipeline and applies the builder options.
func (r *Repository) build(entity string, params search.Params, opts []Opt) (*q.Builder, error) {
	call := findCall{relations: true}
	for _, o := range opts {
		o.applyFind(&call)
	}

	b, err := r.searcher.NewBuilder(entity)
	if err != nil {
		return nil, err
	}
	if call.relations {
		err = r.searcher.SearchWithRelations(b, params, entity, call.search...)
	} else {
		err = r.searcher.Search(b, params, entity, call.search...)
	}
	if err != nil {
		return nil, err
	}
	for _, fn := range call.builder {
		fn(b)
	}
	return b, b.Err()
}

func (r *Repository) logger(ctx context.Context) *zap.Logger {
	if l := logger.FromContext(ctx); l.Core().Enabled(zap.ErrorLevel) {
		return l
	}
	return r.log
}

func (r *Repository) fail(ctx context.Context, entity, op string, err error) error {
	kind := ErrorKind(err)
	r.logger(ctx).Error("search failed",
		zap.String("entity", entity),
		zap.String("op", op),
		zap.String("kind", kind),
		zap.Error(err),
	)
	metrics.ObserveError(entity, kind)
	return err
}

// ErrorKind names the failure class of err for logs and metric labels.
func ErrorKind(err error) string {
	switch search.KindOf(err) {
	case search.ErrInvalidInput:
		return "invalid_input"
	case search.ErrUnknownEntity:
		return "unknown_entity"
	case search.ErrUnknownRelation:
		return "unknown_relation"
	case search.ErrConfiguration:
		return "configuration"
	}
	switch {
	case errors.Is(err, driver.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, driver.ErrIndexNotFound):
		return "index_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "backend"
}

func mode(p search.Params) string {
	if p.Has(search.KeyFreeText) {
		return "free_text"
	}
	return "fields"
}
