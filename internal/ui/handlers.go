package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/rideboard/internal/catalog"
	"github.com/leapstack-labs/rideboard/internal/dataset"
	"github.com/leapstack-labs/rideboard/internal/executor"
	"github.com/leapstack-labs/rideboard/internal/filter"
	"github.com/leapstack-labs/rideboard/internal/history"
	"github.com/leapstack-labs/rideboard/internal/metrics"
)

// filterColumns are the categorical columns exposed as dashboard filters.
var filterColumns = []string{dataset.ColVehicleType, dataset.ColPaymentMethod}

// filteredView builds the view selected by the request's filter params.
func (s *Server) filteredView(r *http.Request) (*filter.View, error) {
	spec := filter.Spec{}
	q := r.URL.Query()
	for _, col := range filterColumns {
		if values, ok := q[col]; ok {
			spec[col] = values
		}
	}
	return filter.Apply(s.ds, spec)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	options := make(map[string][]string, len(filterColumns))
	for _, col := range filterColumns {
		values, err := s.ds.Distinct(col)
		if err != nil {
			s.serverError(w, err)
			return
		}
		options[col] = values
	}
	s.writeJSON(w, http.StatusOK, options)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	view, err := s.filteredView(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, metrics.ComputeKPIs(view))
}

func (s *Server) handleDailyVolume(w http.ResponseWriter, r *http.Request) {
	view, err := s.filteredView(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, emptyAsList(metrics.DailyVolume(view)))
}

func (s *Server) handleRevenueByPayment(w http.ResponseWriter, r *http.Request) {
	view, err := s.filteredView(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, emptyAsList(metrics.RevenueByPaymentMethod(view)))
}

func (s *Server) handleTopVehicles(w http.ResponseWriter, r *http.Request) {
	view, err := s.filteredView(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	k := intParam(r, "k", metrics.DefaultTopK)
	s.writeJSON(w, http.StatusOK, emptyAsList(metrics.TopVehicleTypesByDistance(view, k)))
}

func (s *Server) handleRatings(w http.ResponseWriter, r *http.Request) {
	view, err := s.filteredView(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	bins := intParam(r, "bins", metrics.DefaultBins)
	s.writeJSON(w, http.StatusOK, emptyAsList(metrics.RatingHistogram(view, bins)))
}

// queryListing is one catalog entry as listed by the API.
type queryListing struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	SQL   string `json:"sql"`
}

func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	queries := s.Queries()
	out := make([]queryListing, len(queries))
	for i, q := range queries {
		out[i] = queryListing{Index: i, Title: q.Title, SQL: q.SQL}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRunQuery(w http.ResponseWriter, r *http.Request) {
	q, ok := s.lookupQuery(w, r)
	if !ok {
		return
	}

	result := s.exec.Run(r.Context(), q)
	s.recordRun(r, result)

	// A failed query is a well-formed response, not a transport error: it
	// must leave the rest of the dashboard fully usable.
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExportQuery(w http.ResponseWriter, r *http.Request) {
	q, ok := s.lookupQuery(w, r)
	if !ok {
		return
	}

	result := s.exec.Run(r.Context(), q)
	s.recordRun(r, result)
	if result.Status != executor.StatusSuccess {
		s.writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", executor.ExportFilename(result.Title)))
	if err := result.WriteCSV(w); err != nil {
		s.logger.Warn("csv export failed", "title", result.Title, "error", err)
	}
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		s.writeJSON(w, http.StatusOK, []history.Run{})
		return
	}
	runs, err := s.hist.RecentRuns(r.Context(), intParam(r, "limit", 25))
	if err != nil {
		s.serverError(w, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// lookupQuery resolves the {index} URL parameter to a catalog entry,
// writing a 404 when out of range.
func (s *Server) lookupQuery(w http.ResponseWriter, r *http.Request) (catalog.Query, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid query index"})
		return catalog.Query{}, false
	}
	entry, found := s.queryAt(idx)
	if !found {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("no query at index %d", idx)})
		return catalog.Query{}, false
	}
	return entry, true
}

// recordRun writes run metadata to the history store when enabled.
func (s *Server) recordRun(r *http.Request, result executor.Result) {
	if s.hist == nil {
		return
	}
	_, err := s.hist.Record(r.Context(), history.Run{
		Title:     result.Title,
		Status:    string(result.Status),
		Error:     result.Err,
		RowCount:  len(result.Rows),
		ElapsedMS: result.Elapsed.Milliseconds(),
		StartedAt: time.Now().UTC().Add(-result.Elapsed),
	})
	if err != nil {
		s.logger.Warn("failed to record run", "title", result.Title, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// badRequest maps configuration errors (unknown filter column) to 400s;
// anything else is a 500.
func (s *Server) badRequest(w http.ResponseWriter, err error) {
	var unknownCol *dataset.UnknownColumnError
	status := http.StatusInternalServerError
	if errors.As(err, &unknownCol) {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// intParam reads a positive integer query parameter with a fallback.
func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// emptyAsList substitutes an empty slice for nil so JSON renders [] rather
// than null.
func emptyAsList[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
