package handlers

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"ceo-dashboard/internal/errors"
	"ceo-dashboard/internal/insights"
	"ceo-dashboard/internal/observability"
	"ceo-dashboard/internal/services"
)

const (
	cacheControl = "private, max-age=60"
	version      = "1.0.0"
)

type APIHandlers struct {
	analytics *services.Analytics
	advisor   *insights.Advisor
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, advisor *insights.Advisor, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		advisor:   advisor,
		logger:    logger,
	}
}

// query parses the analytic parameters and writes a BAD_REQUEST response
// when they are malformed.
func (h *APIHandlers) query(w http.ResponseWriter, r *http.Request) (query, bool) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid query parameters"), observability.GetRequestID(r.Context()))
		return q, false
	}
	return q, true
}

func (h *APIHandlers) writeCached(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	h.writeCached(w, h.analytics.KPIs(q.filter))
}

func (h *APIHandlers) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	h.writeCached(w, h.analytics.TimeSeries(q.filter, q.period, services.ResampleOptions{Dense: q.dense}))
}

func (h *APIHandlers) HandleSeries(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	h.writeCached(w, h.analytics.Series(q.filter, q.metric, q.period, services.ResampleOptions{Dense: q.dense}))
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}

	ctx, span := observability.StartSpan(r.Context(), "forecast")
	span.SetTag("metric", string(q.metric))
	span.SetTag("period", string(q.period))
	defer span.Finish()

	fc, err := h.analytics.Forecast(ctx, q.filter, q.metric, q.period, q.horizon)
	if err != nil {
		span.SetError(err)
		errors.WriteError(w, h.logger, errors.UnprocessableWrap(err, "Forecast could not be produced"), observability.GetRequestID(ctx))
		return
	}
	h.writeCached(w, fc)
}

func (h *APIHandlers) HandleTrends(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	h.writeCached(w, h.analytics.Trends(q.filter))
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	h.writeCached(w, h.analytics.Products(q.filter))
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	h.writeCached(w, h.analytics.Categories(q.filter))
}

func (h *APIHandlers) HandleChannels(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	h.writeCached(w, h.analytics.Channels(q.filter))
}

func (h *APIHandlers) HandleQuarters(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	h.writeCached(w, h.analytics.Quarters(q.filter))
}

func (h *APIHandlers) HandleInventory(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, h.analytics.Inventory())
}

func (h *APIHandlers) HandleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, h.analytics.RecentTransactions(q.filter, q.limit))
}

// HandleInsight narrates one insight kind, or every kind for "all". A
// single failed narrative is reported as UPSTREAM_ERROR; with "all" the
// failures stay inside the individual narratives.
func (h *APIHandlers) HandleInsight(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	q, ok := h.query(w, r)
	if !ok {
		return
	}

	if r.PathValue("kind") == "all" {
		errors.WriteSuccess(w, h.advisor.GenerateAll(r.Context(), q.filter))
		return
	}

	kind, err := insights.ParseKind(r.PathValue("kind"))
	if err != nil {
		errors.WriteError(w, h.logger, errors.NotFound("Unknown insight kind").WithDetails(err.Error()), requestID)
		return
	}

	n, err := h.advisor.Generate(r.Context(), kind, q.filter)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Insight generation failed"), requestID)
		return
	}
	h.writeNarrative(w, n, requestID)
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *APIHandlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	q, ok := h.query(w, r)
	if !ok {
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid request body"), requestID)
		return
	}

	n, err := h.advisor.Ask(r.Context(), req.Question, q.filter)
	if err != nil {
		if stderrors.Is(err, insights.ErrEmptyQuestion) {
			errors.WriteError(w, h.logger, errors.BadRequest("Question is required"), requestID)
			return
		}
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Question could not be answered"), requestID)
		return
	}
	h.writeNarrative(w, n, requestID)
}

func (h *APIHandlers) writeNarrative(w http.ResponseWriter, n insights.Narrative, requestID string) {
	if n.Failed() {
		appErr := errors.Upstream("Text generation failed").WithDetails(n.Error)
		errors.WriteError(w, h.logger, appErr, requestID)
		return
	}
	errors.WriteSuccess(w, n)
}

// HandleHealth reports SERVICE_UNAVAILABLE until a snapshot with at least
// one transaction is loaded.
func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, last, loaded := h.analytics.DateRange()
	if !loaded {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("No sales data loaded"), observability.GetRequestID(r.Context()))
		return
	}

	healthData := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().Format(time.RFC3339),
		"version":     version,
		"data":        loaded,
		"latest_date": last.Format(time.DateOnly),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()
	stats["llm_provider"] = h.advisor.Provider()

	errors.WriteSuccess(w, stats)
}
