// Package http exposes the cost store, rate cache and aggregation engine as
// a JSON API. Rendering is the UI layer's job; this surface only returns the
// core's query results.
package http

import (
	"net/http"

	"costwatch/internal/rates"
	"costwatch/internal/report"
	"costwatch/internal/storage"
)

type Server struct {
	http.Server

	repo   *storage.Repository
	rates  *rates.Cache
	engine *report.Engine
}

func NewServer(addr string, repo *storage.Repository, cache *rates.Cache, engine *report.Engine) *Server {
	s := &Server{
		repo:   repo,
		rates:  cache,
		engine: engine,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/costs", s.handleCosts)
	mux.HandleFunc("/api/costs/", s.handleCostByID)
	mux.HandleFunc("/api/costs/export", s.handleExport)
	mux.HandleFunc("/api/costs/import", s.handleImport)

	mux.HandleFunc("/api/report/monthly", s.handleMonthlyReport)
	mux.HandleFunc("/api/report/categories", s.handleCategoryReport)

	mux.HandleFunc("/api/rates", s.handleRates)
	mux.HandleFunc("/api/rates/refresh", s.handleRatesRefresh)
	mux.HandleFunc("/api/settings/rates-url", s.handleRatesURL)

	s.Server = http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
