package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/manojoshi/paramsearch/repository"
	"github.com/manojoshi/paramsearch/scan"
	"github.com/manojoshi/paramsearch/search"
)

// Paging keys are read by the API and never reach the search pipeline.
const (
	keyLimit  = "limit"
	keyOffset = "offset"
)

// SearchResponse is one page of matches.
type SearchResponse struct {
	Entity string     `json:"entity"`
	Total  int64      `json:"total"`
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
	Rows   []scan.Row `json:"rows"`
}

// EntitiesResponse lists the searchable entities.
type EntitiesResponse struct {
	Entities []string `json:"entities"`
}

type handlers struct {
	repo   *repository.Repository
	limits Limits
}

func (h *handlers) listEntities(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return &handlerResponse{Code: http.StatusOK, Body: &EntitiesResponse{Entities: h.repo.Searcher().Registry().Names()}}
}

func (h *handlers) searchQuery(w http.ResponseWriter, r *http.Request) *handlerResponse {
	p, err := search.FromRequest(r)
	if err != nil {
		return checkSearchError(err)
	}
	return h.find(r, p)
}

func (h *handlers) searchJSON(w http.ResponseWriter, r *http.Request) *handlerResponse {
	p, err := search.FromJSON(r.Body)
	if err != nil {
		return checkSearchError(err)
	}
	return h.find(r, p)
}

func (h *handlers) find(r *http.Request, p search.Params) *handlerResponse {
	entity := mux.Vars(r)["entity"]

	offset, limit, err := h.paging(p)
	if err != nil {
		return handleError(http.StatusBadRequest, err)
	}
	delete(p, keyLimit)
	delete(p, keyOffset)

	page, err := h.repo.Find(r.Context(), entity, p, repository.Limit(offset, limit))
	if resp := checkSearchError(err); resp != nil {
		return resp
	}

	rows := page.Rows
	if rows == nil {
		rows = []scan.Row{}
	}
	return &handlerResponse{Code: http.StatusOK, Body: &SearchResponse{
		Entity: entity,
		Total:  page.Total,
		Offset: offset,
		Limit:  limit,
		Rows:   rows,
	}}
}

// paging reads offset and limit from p, clamping limit to the configured
// maximum.
func (h *handlers) paging(p search.Params) (offset, limit int, err error) {
	limit = h.limits.Default
	if p.Has(keyLimit) {
		if limit, err = intParam(p, keyLimit); err != nil {
			return 0, 0, err
		}
	}
	if p.Has(keyOffset) {
		if offset, err = intParam(p, keyOffset); err != nil {
			return 0, 0, err
		}
	}
	if limit <= 0 {
		limit = h.limits.Default
	}
	if h.limits.Max > 0 && limit > h.limits.Max {
		limit = h.limits.Max
	}
	if offset < 0 {
		return 0, 0, fmt.Errorf("%s must not be negative", keyOffset)
	}
	return offset, limit, nil
}

func intParam(p search.Params, key string) (int, error) {
	vs := p.Strings(key)
	if len(vs) != 1 {
		return 0, fmt.Errorf("%s must be a single integer", key)
	}
	n, err := strconv.Atoi(vs[0])
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
