// Package api exposes the estimation and allocation engines over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/robmcelhinney/where-your-taxes-go/internal/allocation"
	"github.com/robmcelhinney/where-your-taxes-go/internal/dataset"
	"github.com/robmcelhinney/where-your-taxes-go/internal/export"
	"github.com/robmcelhinney/where-your-taxes-go/internal/rates"
	"github.com/robmcelhinney/where-your-taxes-go/internal/tax"
)

// Pagination limits per endpoint.
const (
	breakdownDefaultTopN = 12
	breakdownMaxTopN     = 50
	impactDefaultSize    = 20
	impactMaxSize        = 100
	flowsDefaultSize     = 50
	flowsMaxSize         = 500
)

// Server wires the engines behind the public endpoints.
type Server struct {
	estimator *tax.Estimator
	engine    *allocation.Engine
	exporter  *export.Exporter
}

// NewServer creates a Server.
func NewServer(estimator *tax.Estimator, engine *allocation.Engine, exporter *export.Exporter) *Server {
	return &Server{
		estimator: estimator,
		engine:    engine,
		exporter:  exporter,
	}
}

// Router mounts all routes with permissive CORS for the public frontend.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/public/meta", s.handleMeta)
	r.Post("/tax/estimate", s.handleEstimate)
	r.Post("/spending/breakdown", s.handleBreakdown)
	r.Post("/services/impact", s.handleImpact)
	r.Post("/regional/flows", s.handleFlows)
	r.Post("/journalist/export", s.handleExport)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func datasetUnavailable(w http.ResponseWriter, err error) {
	zap.L().Error("reference dataset unavailable", zap.Error(err))
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "reference dataset unavailable"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// meta describes the data vintages and accepted enumerations so the
// frontend can populate its form without hard-coding them.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tax_years":         rates.Years(),
		"latest_tax_year":   rates.LatestYear,
		"spending_year":     dataset.DefaultSpendingYear,
		"revenue_year":      dataset.DefaultRevenueYear,
		"default_vat_ratio": tax.DefaultVATRatio,
	})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req tax.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.estimator.Estimate(r.Context(), req))
}

type breakdownRequest struct {
	tax.Request
	SpendingYear string `json:"spending_year"`
	RevenueYear  string `json:"revenue_year"`
	TopN         int    `json:"top_n"`
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	var req breakdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	spendingYear, revenueYear := defaultYears(req.SpendingYear, req.RevenueYear)
	topN := clampPageSize(req.TopN, breakdownDefaultTopN, breakdownMaxTopN)

	result := s.estimator.Estimate(r.Context(), req.Request)
	out, err := s.engine.Breakdown(r.Context(), result.TotalEstimatedTax, revenueYear, spendingYear, topN)
	if err != nil {
		datasetUnavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type impactRequest struct {
	tax.Request
	SpendingYear string `json:"spending_year"`
	RevenueYear  string `json:"revenue_year"`
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	var req impactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	spendingYear, revenueYear := defaultYears(req.SpendingYear, req.RevenueYear)
	page := clampPage(req.Page)
	pageSize := clampPageSize(req.PageSize, impactDefaultSize, impactMaxSize)

	result := s.estimator.Estimate(r.Context(), req.Request)
	out, err := s.engine.Impact(r.Context(), result.TotalEstimatedTax, revenueYear, spendingYear, page, pageSize)
	if err != nil {
		datasetUnavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type flowsRequest struct {
	Year     string `json:"year"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	var req flowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Year == "" {
		req.Year = dataset.DefaultRevenueYear
	}
	page := clampPage(req.Page)
	pageSize := clampPageSize(req.PageSize, flowsDefaultSize, flowsMaxSize)

	out, err := s.engine.RegionalFlows(r.Context(), req.Year, page, pageSize)
	if err != nil {
		datasetUnavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req tax.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	bundle, err := s.exporter.Bundle(r.Context(), req)
	if err != nil {
		datasetUnavailable(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="where-your-taxes-go-export.json"`)
	writeJSON(w, http.StatusOK, bundle)
}

func defaultYears(spendingYear, revenueYear string) (string, string) {
	if spendingYear == "" {
		spendingYear = dataset.DefaultSpendingYear
	}
	if revenueYear == "" {
		revenueYear = dataset.DefaultRevenueYear
	}
	return spendingYear, revenueYear
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampPageSize(size, def, max int) int {
	if size < 1 {
		return def
	}
	if size > max {
		return max
	}
	return size
}
