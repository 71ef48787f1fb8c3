package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"StockPulse/internal/analytics"
	"StockPulse/internal/catalog"
	"StockPulse/internal/model"
	"StockPulse/internal/series"
)

type errorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

type companiesResponse struct {
	Status  string   `json:"status"`
	Count   int      `json:"count"`
	Symbols []string `json:"symbols"`
}

type seriesResponse struct {
	Status string              `json:"status"`
	Symbol string              `json:"symbol"`
	Days   int                 `json:"days"`
	Data   []model.EnrichedBar `json:"data"`
}

type summaryResponse struct {
	Status  string                 `json:"status"`
	Symbol  string                 `json:"symbol"`
	Summary analytics.SummaryStats `json:"summary"`
}

type compareResponse struct {
	Status     string               `json:"status"`
	Comparison analytics.Comparison `json:"comparison"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Status: "error", Detail: detail})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, series.ErrUnknownSymbol):
		writeError(w, http.StatusNotFound, fmt.Sprintf("%v. Available companies: %s",
			err, strings.Join(s.series.Catalog().Symbols(), ", ")))
	case errors.Is(err, series.ErrNoData):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("[ERROR] %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to " + serviceName,
		"endpoints": map[string]string{
			"companies":  "/api/companies",
			"stock_data": "/api/data/{symbol}?days=30",
			"summary":    "/api/summary/{symbol}",
			"compare":    "/api/compare?symbol1=TCS&symbol2=INFY",
			"health":     "/health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
}

func (s *Server) handleCompanies(w http.ResponseWriter, _ *http.Request) {
	symbols := s.series.Catalog().Symbols()
	writeJSON(w, http.StatusOK, companiesResponse{Status: "success", Count: len(symbols), Symbols: symbols})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > s.opts.MaxDays {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be an integer between 1 and %d", s.opts.MaxDays))
			return
		}
		days = n
	}
	symbol := catalog.Normalize(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol cannot be empty")
		return
	}

	res, err := s.series.Get(r.Context(), symbol, days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if res.PersistErr != nil {
		log.Printf("[WARN] served %s without persisting: %v", res.Ticker, res.PersistErr)
	}
	data := res.Bars
	if data == nil {
		data = []model.EnrichedBar{}
	}
	w.Header().Set("X-Data-Source", res.Source.String())
	writeJSON(w, http.StatusOK, seriesResponse{Status: "success", Symbol: res.Ticker, Days: len(data), Data: data})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	symbol := catalog.Normalize(chi.URLParam(r, "symbol"))
	summary, err := s.analytics.Summary(r.Context(), symbol)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Status: "success", Symbol: symbol, Summary: summary})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol1, symbol2 := q.Get("symbol1"), q.Get("symbol2")
	if strings.TrimSpace(symbol1) == "" || strings.TrimSpace(symbol2) == "" {
		writeError(w, http.StatusBadRequest, "symbol1 and symbol2 are required")
		return
	}
	cmp, err := s.analytics.CompareTickers(r.Context(), symbol1, symbol2)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{Status: "success", Comparison: cmp})
}
