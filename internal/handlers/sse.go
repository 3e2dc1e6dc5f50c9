package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ceo-dashboard/internal/errors"
	"ceo-dashboard/internal/models"
	"ceo-dashboard/internal/observability"
	"ceo-dashboard/internal/services"
)

const (
	maxProducts = 10
	maxLowStock = 15
)

var printer = message.NewPrinter(language.English)

var fragmentFuncs = template.FuncMap{
	"money":   func(v float64) string { return printer.Sprintf("$%.2f", v) },
	"count":   func(v int) string { return printer.Sprintf("%d", v) },
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"signed":  func(v float64) string { return fmt.Sprintf("%+.1f%%", v) },
	"trend": func(v float64) string {
		if v < 0 {
			return "down"
		}
		return "up"
	},
}

var kpiTemplate = template.Must(template.New("kpis").Funcs(fragmentFuncs).Parse(`
<div id="kpi-cards" class="kpi-grid">
<div class="kpi-card"><h3>Revenue (30d)</h3><p class="kpi-value">{{money .TotalRevenue30d}}</p><p class="kpi-delta {{trend .RevenueGrowth}}">{{signed .RevenueGrowth}} vs prior 30d</p></div>
<div class="kpi-card"><h3>Profit (30d)</h3><p class="kpi-value">{{money .TotalProfit30d}}</p><p class="kpi-delta {{trend .ProfitGrowth}}">{{signed .ProfitGrowth}} vs prior 30d</p></div>
<div class="kpi-card"><h3>Transactions (30d)</h3><p class="kpi-value">{{count .TotalTransactions30d}}</p></div>
<div class="kpi-card"><h3>Avg Order Value</h3><p class="kpi-value">{{money .AvgOrderValue30d}}</p></div>
<div class="kpi-card"><h3>Profit Margin</h3><p class="kpi-value">{{percent .ProfitMargin30d}}</p></div>
<div class="kpi-card"><h3>Top Product</h3><p class="kpi-value">{{.TopProduct}}</p></div>
<div class="kpi-card"><h3>Top Category</h3><p class="kpi-value">{{.TopCategory}}</p></div>
<div class="kpi-card"><h3>Best Channel</h3><p class="kpi-value">{{.BestChannel}}</p></div>
</div>`))

var productsTemplate = template.Must(template.New("products").Funcs(fragmentFuncs).Parse(`
<div id="products-content">
<table class="modern-table">
<thead><tr><th>Product</th><th>Revenue</th><th>Profit</th><th>Margin</th><th>Units</th><th>Customers</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Name}}</td>
<td><strong>{{money .Revenue}}</strong></td>
<td>{{money .Profit}}</td>
<td>{{percent .ProfitMargin}}</td>
<td>{{count .Quantity}}</td>
<td>{{count .UniqueCustomers}}</td>
</tr>{{else}}<tr><td colspan="6">No sales match the current filter</td></tr>{{end}}
</tbody>
</table>
</div>`))

var inventoryTemplate = template.Must(template.New("inventory").Funcs(fragmentFuncs).Parse(`
<div id="inventory-content">
<p class="inventory-summary">{{count .TotalProducts}} products, {{count .NeedsRestock}} need restocking, {{printf "%.1f" .AvgDaysOfInventory}} days of inventory on average</p>
<table class="modern-table">
<thead><tr><th>Product</th><th>Category</th><th>Stock</th><th>Reorder Point</th><th>Days Left</th><th>Supplier</th></tr></thead>
<tbody>
{{range .LowStock}}<tr>
<td>{{.Product}}</td>
<td><span class="category-badge">{{.Category}}</span></td>
<td>{{count .CurrentStock}}</td>
<td>{{count .ReorderPoint}}</td>
<td>{{printf "%.1f" .DaysOfInventory}}</td>
<td>{{.Supplier}}</td>
</tr>{{else}}<tr><td colspan="6">All products are above their reorder point</td></tr>{{end}}
</tbody>
</table>
</div>`))

var revenueStatusTemplate = template.Must(template.New("revenueStatus").Funcs(fragmentFuncs).Parse(`
<div id="revenue-status">{{if .Error}}<span class="warning">Forecast unavailable: {{.Error}}</span>{{else}}Next 30 periods: {{money .Summary.Next30Total}} expected ({{money .Summary.ConfidenceLower}} to {{money .Summary.ConfidenceUpper}}), trend {{.Summary.TrendDirection}}{{end}}</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, data)
	return buf.String(), err
}

// stream parses the query, opens the event stream and runs each patch in
// order. A failing patch is logged and the remaining ones still run.
func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, patches ...func(context.Context, *datastar.ServerSentEventGenerator, query) error) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid query parameters"), observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)
	log := observability.RequestLogger(r.Context(), h.logger)
	for _, patch := range patches {
		if err := patch(r.Context(), sse, q); err != nil {
			log.Error("sse patch failed", "path", r.URL.Path, "error", err)
		}
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) patchKPIs(_ context.Context, sse *datastar.ServerSentEventGenerator, q query) error {
	html, err := render(kpiTemplate, h.analytics.KPIs(q.filter))
	if err != nil {
		return fmt.Errorf("render kpi cards: %w", err)
	}
	return sse.PatchElements(html)
}

type revenueStatus struct {
	Summary models.ForecastSummary
	Error   string
}

func (h *SSEHandlers) patchRevenue(ctx context.Context, sse *datastar.ServerSentEventGenerator, q query) error {
	signals := map[string]any{
		"revenueData":  h.analytics.Series(q.filter, models.MetricRevenue, q.period, services.ResampleOptions{Dense: true}),
		"forecastData": []models.ForecastPoint{},
	}

	var status revenueStatus
	fc, err := h.analytics.Forecast(ctx, q.filter, models.MetricRevenue, q.period, q.horizon)
	if err != nil {
		status.Error = err.Error()
	} else {
		signals["forecastData"] = fc.Points
		status.Summary = fc.Summary
	}

	payload, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("marshal revenue signals: %w", err)
	}
	if err := sse.PatchSignals(payload); err != nil {
		return err
	}

	html, err := render(revenueStatusTemplate, status)
	if err != nil {
		return fmt.Errorf("render revenue status: %w", err)
	}
	return sse.PatchElements(html)
}

func (h *SSEHandlers) patchProducts(_ context.Context, sse *datastar.ServerSentEventGenerator, q query) error {
	products := h.analytics.Products(q.filter)
	if len(products) > maxProducts {
		products = products[:maxProducts]
	}

	payload, err := json.Marshal(map[string]any{
		"productsData":   products,
		"categoriesData": h.analytics.Categories(q.filter),
		"channelsData":   h.analytics.Channels(q.filter),
	})
	if err != nil {
		return fmt.Errorf("marshal product signals: %w", err)
	}
	if err := sse.PatchSignals(payload); err != nil {
		return err
	}

	html, err := render(productsTemplate, products)
	if err != nil {
		return fmt.Errorf("render products table: %w", err)
	}
	return sse.PatchElements(html)
}

func (h *SSEHandlers) patchInventory(_ context.Context, sse *datastar.ServerSentEventGenerator, _ query) error {
	summary := h.analytics.Inventory()
	if len(summary.LowStock) > maxLowStock {
		summary.LowStock = summary.LowStock[:maxLowStock]
	}

	html, err := render(inventoryTemplate, summary)
	if err != nil {
		return fmt.Errorf("render inventory table: %w", err)
	}
	return sse.PatchElements(html)
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.patchKPIs)
}

func (h *SSEHandlers) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.patchRevenue)
}

func (h *SSEHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.patchProducts)
}

func (h *SSEHandlers) HandleInventory(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.patchInventory)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.patchKPIs, h.patchRevenue, h.patchProducts, h.patchInventory)
}
