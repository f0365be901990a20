// Package httpx wires the shared HTTP/JSON wire protocol of spec.md §6 to
// concrete handlers over the ingestion pipeline, tile store, structure
// store, player store and queue-status relay. Routing follows the teacher's
// query-server style of a thin handler layer (server/query.go) adapted to
// github.com/go-chi/chi/v5, the router the rest of the retrieved corpus
// reaches for (see other_examples/manifests/*/go.mod).
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/df-mc/mapcarta/internal/errs"
	"github.com/df-mc/mapcarta/internal/wire"
)

// authTokenHeader is the shared-secret header spec.md §6 mandates for every
// authenticated request.
const authTokenHeader = "x-mc-auth-token"

// authMiddleware rejects requests missing a matching shared-secret token,
// per spec.md §6's AuthFailure policy (401, do not process). An empty token
// disables the check, for local development.
func authMiddleware(token string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(authTokenHeader)
			if got != token {
				log.Warn("httpx: rejected request with bad or missing auth token", "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "unauthorized", errs.ErrAuthFailure)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// recoverMiddleware converts a handler panic into a 500 JSON error response
// instead of crashing the process, the same boundary spec.md §7 describes
// for job and tile tasks, applied at the request boundary.
func recoverMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("httpx: panic handling request", "path", r.URL.Path, "recovered", rec)
					writeError(w, http.StatusInternalServerError, "internal error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogMiddleware logs one line per request at debug level, in the
// teacher's structured slog style.
func requestLogMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("httpx: handled request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
		})
	}
}

// decodeJSON decodes r's body into dst, returning a ValidationFailure-kind
// error on malformed JSON.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errs.ErrValidationFailure
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes the ErrorEnvelope spec.md §6 defines. err may be nil
// when the detail is intentionally withheld (e.g. a recovered panic).
func writeError(w http.ResponseWriter, status int, label string, err error) {
	env := wire.ErrorEnvelope{Success: false, Error: label}
	if err != nil {
		env.Details = err.Error()
	}
	writeJSON(w, status, env)
}

func writeSuccess(w http.ResponseWriter, data map[string]int) {
	writeJSON(w, http.StatusOK, wire.SuccessEnvelope{Success: true, Data: data})
}
