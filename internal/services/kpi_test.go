package services

import (
	"math"
	"slices"
	"testing"
	"time"

	"ceo-dashboard/internal/generator"
	"ceo-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(date time.Time, product, category string, revenue, profit float64) models.Transaction {
	return models.Transaction{
		Date:             date,
		Product:          product,
		Category:         category,
		Quantity:         1,
		Price:            revenue,
		Revenue:          revenue,
		TotalProfit:      profit,
		MarketingChannel: "Email",
		CustomerID:       "c-" + product,
	}
}

func generated(t *testing.T, days int) []models.Transaction {
	t.Helper()
	g := generator.New(7, func() time.Time { return day(2024, 5, 31) })
	return g.GenerateTransactions(days, 300)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Abs(b))
}

func TestComputeKPIs_SingleTransaction(t *testing.T) {
	txs := []models.Transaction{sale(day(2024, 3, 10), "Blender", "Appliances", 100, 20)}

	k := ComputeKPIs(txs)

	if k.TotalRevenue30d != 100 {
		t.Errorf("TotalRevenue30d = %f, want 100", k.TotalRevenue30d)
	}
	if k.TotalTransactions30d != 1 {
		t.Errorf("TotalTransactions30d = %d, want 1", k.TotalTransactions30d)
	}
	if k.ProfitMargin30d != 20.0 {
		t.Errorf("ProfitMargin30d = %f, want 20", k.ProfitMargin30d)
	}
	if k.RevenueGrowth != 0 || k.ProfitGrowth != 0 {
		t.Errorf("growth without a previous window should be 0, got %f/%f", k.RevenueGrowth, k.ProfitGrowth)
	}
	if k.AvgOrderValue30d != 100 {
		t.Errorf("AvgOrderValue30d = %f, want 100", k.AvgOrderValue30d)
	}
	if k.TopProduct != "Blender" || k.TopCategory != "Appliances" || k.BestChannel != "Email" {
		t.Errorf("unexpected top groups: %+v", k)
	}
}

func TestComputeKPIs_Empty(t *testing.T) {
	k := ComputeKPIs(nil)
	if k.AvgOrderValue30d != 0 || k.ProfitMargin30d != 0 || k.TotalTransactions30d != 0 {
		t.Errorf("expected zero ratios, got %+v", k)
	}
	for name, got := range map[string]string{"product": k.TopProduct, "category": k.TopCategory, "channel": k.BestChannel} {
		if got != models.NoData {
			t.Errorf("top %s = %q, want %q", name, got, models.NoData)
		}
	}
}

func TestComputeKPIs_Windows(t *testing.T) {
	latest := day(2024, 6, 30)
	txs := []models.Transaction{
		sale(latest, "Blender", "Appliances", 150, 30),
		sale(latest.AddDate(0, 0, -30), "Blender", "Appliances", 50, 10), // recent boundary
		sale(latest.AddDate(0, 0, -31), "Blender", "Appliances", 80, 16), // previous
		sale(latest.AddDate(0, 0, -60), "Blender", "Appliances", 20, 4),  // previous boundary
		sale(latest.AddDate(0, 0, -61), "Blender", "Appliances", 999, 9), // outside both
	}

	k := ComputeKPIs(txs)

	if k.TotalRevenue30d != 200 || k.TotalTransactions30d != 2 {
		t.Errorf("recent window = %f over %d rows, want 200 over 2", k.TotalRevenue30d, k.TotalTransactions30d)
	}
	if k.RevenueGrowth != 100 {
		t.Errorf("RevenueGrowth = %f, want 100", k.RevenueGrowth)
	}
	if k.ProfitGrowth != 100 {
		t.Errorf("ProfitGrowth = %f, want 100", k.ProfitGrowth)
	}
	if k.AvgOrderValue30d != 100 {
		t.Errorf("AvgOrderValue30d = %f, want 100", k.AvgOrderValue30d)
	}
}

func TestComputeKPIs_RecentRevenueMatchesManualSum(t *testing.T) {
	txs := generated(t, 120)
	latest, _ := LatestDate(txs)
	start := latest.AddDate(0, 0, -30)

	var want float64
	for _, tx := range txs {
		if !tx.Date.Before(start) && !tx.Date.After(latest) {
			want += tx.Revenue
		}
	}

	if got := ComputeKPIs(txs).TotalRevenue30d; got != want {
		t.Errorf("TotalRevenue30d = %f, want %f", got, want)
	}
}

func TestComputeKPIs_DoesNotMutateInput(t *testing.T) {
	txs := generated(t, 40)
	before := slices.Clone(txs)
	ComputeKPIs(txs)
	if !slices.Equal(before, txs) {
		t.Error("ComputeKPIs modified its input")
	}
}

func TestComputeKPIs_TieBreakUsesCatalogOrder(t *testing.T) {
	latest := day(2024, 6, 30)
	// Wireless Headphones precedes Smart Watch in the catalog.
	txs := []models.Transaction{
		sale(latest, "Smart Watch", "Wearables", 250, 50),
		sale(latest, "Wireless Headphones", "Audio", 250, 50),
	}

	for range 20 {
		if got := ComputeKPIs(txs).TopProduct; got != "Wireless Headphones" {
			t.Fatalf("TopProduct = %q, want Wireless Headphones", got)
		}
	}
	slices.Reverse(txs)
	if got := ComputeKPIs(txs).TopProduct; got != "Wireless Headphones" {
		t.Errorf("tie-break should not depend on row order, got %q", got)
	}
}

func TestComputeKPIs_CategoryAndChannelTieBreak(t *testing.T) {
	latest := day(2024, 6, 30)
	paid := sale(latest, "Bluetooth Speaker", "Audio", 400, 80)
	paid.MarketingChannel = "Paid Ads"
	organic := sale(latest, "Laptop Pro", "Electronics", 400, 80)
	organic.MarketingChannel = "Organic Search"

	// Electronics precedes Audio, Organic Search precedes Paid Ads.
	for _, txs := range [][]models.Transaction{
		{paid, organic},
		{organic, paid},
	} {
		for range 20 {
			k := ComputeKPIs(txs)
			if k.TopCategory != "Electronics" {
				t.Fatalf("TopCategory = %q, want Electronics", k.TopCategory)
			}
			if k.BestChannel != "Organic Search" {
				t.Fatalf("BestChannel = %q, want Organic Search", k.BestChannel)
			}
		}
	}
}

func TestComputeKPIs_UnknownNamesFollowFirstAppearance(t *testing.T) {
	latest := day(2024, 6, 30)
	txs := []models.Transaction{
		sale(latest, "Zeta Gadget", "Misc", 10, 1),
		sale(latest, "Alpha Gadget", "Misc", 10, 1),
	}
	if got := ComputeKPIs(txs).TopProduct; got != "Zeta Gadget" {
		t.Errorf("TopProduct = %q, want first-seen Zeta Gadget", got)
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		current, previous, want float64
	}{
		{150, 100, 50},
		{50, 100, -50},
		{100, 0, 0},
		{100, -20, 0},
	}
	for _, tt := range tests {
		if got := percentChange(tt.current, tt.previous); got != tt.want {
			t.Errorf("percentChange(%v, %v) = %v, want %v", tt.current, tt.previous, got, tt.want)
		}
	}
}
