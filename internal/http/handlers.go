package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"costwatch/internal/core"
	"costwatch/internal/storage"
)

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createCost(w, r)
	case http.MethodGet:
		s.listCosts(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) createCost(w http.ResponseWriter, r *http.Request) {
	var in core.CostRecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", core.ErrValidation, err))
		return
	}

	record, err := s.repo.Add(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) listCosts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []core.CostRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

func parseFilter(r *http.Request) (storage.Filter, error) {
	var f storage.Filter
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.From = d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.To = d
	}
	f.Category = strings.TrimSpace(q.Get("category"))

	return f, nil
}

func (s *Server) handleCostByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/costs/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: bad id %q", core.ErrValidation, idStr))
		return
	}

	removed, err := s.repo.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Removing an absent id is not an error; the response just says so.
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	inputs, err := s.repo.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if inputs == nil {
		inputs = []core.CostRecordInput{}
	}

	writeJSON(w, http.StatusOK, inputs)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var inputs []core.CostRecordInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", core.ErrValidation, err))
		return
	}

	n, err := s.repo.Import(r.Context(), inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	currency, err := targetCurrency(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	totals, err := s.engine.MonthlyTotals(records, currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if totals == nil {
		totals = []core.MonthlyTotal{}
	}

	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	currency, err := targetCurrency(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	breakdown, err := s.engine.CategoryBreakdown(records, currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if breakdown == nil {
		breakdown = core.CategoryBreakdown{}
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	set, ok := s.rates.Current()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no rate set cached yet"})
		return
	}

	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleRatesRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	set, err := s.rates.Refresh(r.Context())
	if err != nil {
		// The previous set, if any, is still served; tell the caller it is
		// stale rather than pretending the refresh worked.
		if stale, ok := s.rates.Current(); ok {
			slog.WarnContext(r.Context(), "Refresh failed, serving stale rate set",
				"error", err, "fetched_at", stale.FetchedAt)
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleRatesURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, "PUT")
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", core.ErrValidation, err))
		return
	}
	if !strings.HasPrefix(body.URL, "http://") && !strings.HasPrefix(body.URL, "https://") {
		writeError(w, r, fmt.Errorf("%w: rates url must be http(s)", core.ErrValidation))
		return
	}

	if err := s.rates.Configure(r.Context(), body.URL); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": body.URL})
}
