package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manojoshi/paramsearch/internal/logger"
	"github.com/manojoshi/paramsearch/metrics"
)

type handlerResponse struct {
	Code int
	Body interface{}
	Err  error
}

type returnHandler func(http.ResponseWriter, *http.Request) *handlerResponse

const requestIDHeader = "X-Request-ID"

// logMiddleware tags the request with an ID, stores a request-scoped logger
// in the context and writes one line per request.
func logMiddleware(next returnHandler, log *zap.Logger, route string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		reqLog := log.With(zap.String("request_id", id))
		resp := next(w, r.WithContext(logger.ContextWithLogger(r.Context(), reqLog)))

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("code", resp.Code),
			zap.Duration("elapsed", time.Since(start)),
		}
		if resp.Err != nil {
			fields = append(fields, zap.Error(resp.Err))
		}
		switch {
		case resp.Code >= http.StatusInternalServerError:
			reqLog.Error("request", fields...)
		case resp.Code >= http.StatusBadRequest:
			reqLog.Warn("request", fields...)
		default:
			reqLog.Info("request", fields...)
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(resp.Code)).Inc()
	})
}

func jsonMiddleware(next returnHandler) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		resp := next(w, r)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Code)
		if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
			return handleError(http.StatusInternalServerError, fmt.Errorf("could not encode json: %w", err))
		}
		return resp
	}
}

// contentTypeMiddleware rejects request bodies that are not JSON.
func contentTypeMiddleware(next returnHandler) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			return handleError(http.StatusBadRequest, errors.New("could not parse Content-Type"))
		}
		if mediaType != "application/json" {
			return handleError(http.StatusUnsupportedMediaType, errors.New("Content-Type not application/json"))
		}
		return next(w, r)
	}
}
