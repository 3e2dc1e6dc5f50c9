package server

import (
	"context"
	"log/slog"
	"net/http"

	"ceo-dashboard/internal/errors"
	"ceo-dashboard/internal/handlers"
	"ceo-dashboard/internal/insights"
	"ceo-dashboard/internal/observability"
	"ceo-dashboard/internal/services"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
	regenerate  func(context.Context) error
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// Dependencies wires the server. Regenerate is optional; without it the
// admin regenerate route is not registered.
type Dependencies struct {
	Analytics  *services.Analytics
	Advisor    *insights.Advisor
	Logger     *slog.Logger
	Templates  *TemplateHandlers
	Regenerate func(context.Context) error
}

func NewServer(deps Dependencies) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      deps.Logger,
		apiHandlers: handlers.NewAPIHandlers(deps.Analytics, deps.Advisor, deps.Logger),
		sseHandlers: handlers.NewSSEHandlers(deps.Analytics, deps.Logger),
		regenerate:  deps.Regenerate,
	}
	s.setupRoutes(deps.Templates)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	if s.regenerate != nil {
		s.mux.HandleFunc("POST /admin/regenerate", s.handleRegenerate)
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/timeseries", s.apiHandlers.HandleTimeSeries)
	s.mux.HandleFunc("GET /api/series", s.apiHandlers.HandleSeries)
	s.mux.HandleFunc("GET /api/forecast", s.apiHandlers.HandleForecast)
	s.mux.HandleFunc("GET /api/trends", s.apiHandlers.HandleTrends)
	s.mux.HandleFunc("GET /api/products", s.apiHandlers.HandleProducts)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("GET /api/channels", s.apiHandlers.HandleChannels)
	s.mux.HandleFunc("GET /api/quarters", s.apiHandlers.HandleQuarters)
	s.mux.HandleFunc("GET /api/inventory", s.apiHandlers.HandleInventory)
	s.mux.HandleFunc("GET /api/transactions/recent", s.apiHandlers.HandleRecentTransactions)
	s.mux.HandleFunc("POST /api/insights/{kind}", s.apiHandlers.HandleInsight)
	s.mux.HandleFunc("POST /api/ask", s.apiHandlers.HandleAsk)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/kpis", s.sseHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /sse/revenue", s.sseHandlers.HandleRevenue)
	s.mux.HandleFunc("GET /sse/products", s.sseHandlers.HandleProducts)
	s.mux.HandleFunc("GET /sse/inventory", s.sseHandlers.HandleInventory)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if err := s.regenerate(r.Context()); err != nil {
		errors.WriteError(w, s.logger, errors.InternalWrap(err, "Regenerating data failed"), observability.GetRequestID(r.Context()))
		return
	}
	s.apiHandlers.HandleStats(w, r)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
