package menu

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// RoleParam is the query parameter carrying the requesting role.
// It may be repeated for principals holding several roles.
const RoleParam = "role"

// Outcomes reported to a Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeNoRole   = "no_role"
	OutcomeInvalid  = "invalid"
	OutcomeNoSource = "source_error"
)

// Loader provides the raw menu for each request.
type Loader interface {
	Load(ctx context.Context) (*Menu, error)
}

// Recorder observes resolve results.
type Recorder interface {
	ObserveResolve(outcome string, nodes int)
}

// Response is the envelope written by Handler.
type Response struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type nopRecorder struct{}

func (nopRecorder) ObserveResolve(string, int) {}

// Handler returns an HTTP handler that responds with the menu resolved for
// the roles named in the request as JSON.
func Handler(l Loader, rec Recorder) http.Handler {
	if rec == nil {
		rec = nopRecorder{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("handling menu request",
			"method", r.Method,
			"url", r.URL.Path,
		)

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeJSON(w, http.StatusMethodNotAllowed, Response{Message: "method not allowed"})
			return
		}

		roles := r.URL.Query()[RoleParam]
		if len(roles) == 0 {
			rec.ObserveResolve(OutcomeNoRole, 0)
			writeJSON(w, http.StatusBadRequest, Response{Message: "role is required"})
			return
		}

		m, err := l.Load(r.Context())
		if err != nil {
			if writeInvalid(w, rec, err) {
				return
			}
			slog.Error("failed to load menu", "error", err)
			rec.ObserveResolve(OutcomeNoSource, 0)
			writeJSON(w, http.StatusBadGateway, Response{Message: "menu source unavailable"})
			return
		}

		resolved, err := m.Resolve(roles...)
		if err != nil {
			if writeInvalid(w, rec, err) {
				return
			}
			slog.Error("failed to resolve menu", "error", err)
			writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
			return
		}

		count := Count(resolved.Items)
		rec.ObserveResolve(OutcomeOK, count)

		items := resolved.Items
		if items == nil {
			items = []Node{}
		}

		writeJSON(w, http.StatusOK, Response{Success: true, Code: http.StatusOK, Data: items})

		slog.Debug("menu response sent",
			"roles", roles,
			"nodes", count,
			"status", http.StatusOK,
		)
	})
}

// writeInvalid answers 422 when err carries an InvalidNodeError, whether it
// was raised while loading or while resolving.
func writeInvalid(w http.ResponseWriter, rec Recorder, err error) bool {
	var inv *InvalidNodeError
	if !errors.As(err, &inv) {
		return false
	}

	slog.Error("invalid menu configuration", "error", err, "path", inv.Path)
	rec.ObserveResolve(OutcomeInvalid, 0)
	writeJSON(w, http.StatusUnprocessableEntity, Response{Message: err.Error()})
	return true
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	if resp.Code == 0 {
		resp.Code = status
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode menu response", "error", err)
	}
}
