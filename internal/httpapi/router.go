// Package httpapi exposes a Repository over HTTP: the query string (GET) or
// a flat JSON object (POST) becomes the parameter mapping of one search.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/manojoshi/paramsearch/repository"
)

// Limits bounds the page size a client may request.
type Limits struct {
	Default int
	Max     int
}

// NewRouter returns an HTTP router for the search API.
func NewRouter(repo *repository.Repository, log *zap.Logger, limits Limits) http.Handler {
	if limits.Default <= 0 {
		limits.Default = 50
	}
	h := &handlers{repo: repo, limits: limits}

	//construct middleware
	var m = func(route string, next returnHandler) http.Handler {
		return logMiddleware(jsonMiddleware(next), log, route)
	}

	r := mux.NewRouter()

	r.Path("/metrics").Methods("GET").Handler(promhttp.Handler())
	r.Path("/entities").Methods("GET").Handler(m("/entities", h.listEntities))
	r.Path("/{entity}").Methods("GET").Handler(m("/{entity}", h.searchQuery))
	r.Path("/{entity}/search").Methods("POST").Handler(m("/{entity}/search", contentTypeMiddleware(h.searchJSON)))

	r.NotFoundHandler = m("unknown", notFoundHandler)

	return r
}
