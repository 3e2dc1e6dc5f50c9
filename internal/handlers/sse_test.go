package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ceo-dashboard/internal/models"
)

func TestRender_KPICards(t *testing.T) {
	html, err := render(kpiTemplate, models.KPISnapshot{
		TotalRevenue30d:      1234567.5,
		TotalTransactions30d: 1200,
		ProfitMargin30d:      21.26,
		RevenueGrowth:        -3.2,
		ProfitGrowth:         4,
		TopProduct:           "Laptop Pro",
		TopCategory:          models.NoData,
		BestChannel:          "Email",
	})
	if err != nil {
		t.Fatalf("render() error: %v", err)
	}

	for _, want := range []string{`id="kpi-cards"`, "$1,234,567.50", "1,200", "21.3%", "-3.2%", `kpi-delta down`, "&#43;4.0%", "Laptop Pro", "N/A"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}
}

func TestRender_ProductsTable(t *testing.T) {
	html, err := render(productsTemplate, []models.GroupPerformance{
		{Name: "<b>Mouse</b>", Revenue: 59.98, Quantity: 2, UniqueCustomers: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<b>Mouse</b>") || !strings.Contains(html, "&lt;b&gt;Mouse&lt;/b&gt;") {
		t.Error("product names should be escaped")
	}

	empty, _ := render(productsTemplate, []models.GroupPerformance{})
	if !strings.Contains(empty, "No sales match the current filter") {
		t.Error("empty table should say so")
	}
}

func TestRender_RevenueStatus(t *testing.T) {
	html, _ := render(revenueStatusTemplate, revenueStatus{Error: "forecast: at least two points are required"})
	if !strings.Contains(html, "Forecast unavailable") {
		t.Errorf("unexpected status %q", html)
	}

	html, _ = render(revenueStatusTemplate, revenueStatus{Summary: models.ForecastSummary{Next30Total: 3000, TrendDirection: "increasing"}})
	if !strings.Contains(html, "$3,000.00 expected") || !strings.Contains(html, "trend increasing") {
		t.Errorf("unexpected status %q", html)
	}
}

func TestSSEHandlers_Streams(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), quietLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
		want    []string
	}{
		{"kpis", h.HandleKPIs, "/sse/kpis", []string{"datastar-patch-elements", `id="kpi-cards"`}},
		{"revenue", h.HandleRevenue, "/sse/revenue?period=week", []string{"datastar-patch-signals", "revenueData", "forecastData", `id="revenue-status"`}},
		{"products", h.HandleProducts, "/sse/products?category=Electronics", []string{"productsData", "categoriesData", "channelsData", `id="products-content"`}},
		{"inventory", h.HandleInventory, "/sse/inventory", []string{`id="inventory-content"`, "products,"}},
		{"refresh all", h.HandleRefreshAll, "/sse/refresh-all", []string{`id="kpi-cards"`, "revenueData", "productsData", `id="inventory-content"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
				t.Errorf("Content-Type = %q", ct)
			}
			body := rec.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("stream missing %q", want)
				}
			}
		})
	}
}

func TestSSEHandlers_RevenueWithoutData(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), quietLogger())

	rec := httptest.NewRecorder()
	h.HandleRevenue(rec, httptest.NewRequest(http.MethodGet, "/sse/revenue?from=1999-01-01&to=1999-01-02", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "Forecast unavailable") {
		t.Error("forecast failure should be rendered, not dropped")
	}
	if !strings.Contains(body, `"forecastData":[]`) {
		t.Error("forecast signal should be reset to an empty list")
	}
}

func TestSSEHandlers_BadQuery(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), quietLogger())

	rec := httptest.NewRecorder()
	h.HandleKPIs(rec, httptest.NewRequest(http.MethodGet, "/sse/kpis?period=fortnight", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream") {
		t.Error("no stream should be opened for a bad query")
	}
}
