package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/fortuna/brutalball/internal/export"
	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/service"
	"github.com/fortuna/brutalball/internal/teams"
)

// TableReader serves cached tables.
type TableReader interface {
	Get(ctx context.Context, p extract.Page, teamNames []string) (extract.Bundle, error)
	Teams(ctx context.Context) (teams.Directory, error)
}

// HealthChecker is a dependency probed by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	tables TableReader
	checks map[string]HealthChecker
}

// NewHandler creates a new handler. checks maps dependency names to probes.
func NewHandler(tables TableReader, checks map[string]HealthChecker) *Handler {
	return &Handler{tables: tables, checks: checks}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.HealthCheck(r.Context()); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       state,
		"service":      "brutalball",
		"dependencies": deps,
	})
}

// GetTeams returns the team directory.
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	dir, err := h.tables.Teams(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load teams", err)
		return
	}
	if dir == nil {
		dir = teams.Directory{}
	}
	respondJSON(w, http.StatusOK, dir)
}

// GetTable returns one table as JSON, CSV or TSV. Repeated ?team= parameters
// restrict the rows to those teams.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	p, err := extract.ParsePage(mux.Vars(r)["page"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Unknown table", err)
		return
	}

	q := r.URL.Query()
	var names []string
	for _, v := range q["team"] {
		if v = strings.TrimSpace(v); v != "" {
			names = append(names, v)
		}
	}

	if len(names) > 0 && p.TeamColumn() < 0 {
		respondError(w, http.StatusBadRequest, "Team filter not supported for this table", nil)
		return
	}

	b, err := h.tables.Get(r.Context(), p, names)
	if errors.Is(err, service.ErrNoTable) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("No %s table has been scraped yet", p), nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load table", err)
		return
	}

	format := q.Get("format")
	if format == "" || format == "json" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"page":    p,
			"headers": b.Headers,
			"rows":    nonNilRows(b.Rows),
		})
		return
	}

	f, err := export.ParseFormat(format)
	if err != nil || f == export.FormatXLSX {
		respondError(w, http.StatusBadRequest, "Invalid format (use json, csv or tsv)", err)
		return
	}
	contentType := "text/csv"
	if f == export.FormatTSV {
		contentType = "text/tab-separated-values"
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, p, f.Ext()))
	w.WriteHeader(http.StatusOK)
	_ = export.WriteDelimited(w, b, export.OptionsFor(p, f, true, q.Get("keephash") == "true"))
}

func nonNilRows(rows [][]string) [][]string {
	if rows == nil {
		return [][]string{}
	}
	return rows
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
