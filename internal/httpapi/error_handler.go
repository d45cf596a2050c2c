package httpapi

import (
	"errors"
	"net/http"

	"github.com/manojoshi/paramsearch/search"
)

// ErrorResponse represents an HTTP error.
type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// handleError returns a handlerResponse for the given code. Client errors
// carry the error text; server errors only the status text.
func handleError(code int, err error) *handlerResponse {
	msg := http.StatusText(code)
	if code < http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}
	return &handlerResponse{Code: code, Body: &ErrorResponse{Code: code, Error: msg}, Err: err}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return handleError(http.StatusNotFound, errors.New("could not find handler"))
}

// checkSearchError maps a search failure to its response, or nil if there
// was no error.
func checkSearchError(err error) *handlerResponse {
	if err == nil {
		return nil
	}
	switch search.KindOf(err) {
	case search.ErrUnknownEntity:
		return handleError(http.StatusNotFound, err)
	case search.ErrInvalidInput, search.ErrUnknownRelation:
		return handleError(http.StatusBadRequest, err)
	}
	return handleError(http.StatusInternalServerError, err)
}
