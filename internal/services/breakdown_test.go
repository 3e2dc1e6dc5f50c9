package services

import (
	"testing"

	"ceo-dashboard/internal/models"
)

func TestFilter_Apply(t *testing.T) {
	txs := []models.Transaction{
		sale(day(2024, 1, 1), "Blender", "Appliances", 10, 1),
		sale(day(2024, 1, 5), "Mechanical Keyboard", "Accessories", 20, 2),
		sale(day(2024, 1, 9), "Blender", "Appliances", 30, 3),
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{name: "zero filter", filter: Filter{}, want: 3},
		{name: "from inclusive", filter: Filter{From: day(2024, 1, 5)}, want: 2},
		{name: "to inclusive", filter: Filter{To: day(2024, 1, 5)}, want: 2},
		{name: "category any case", filter: Filter{Category: "appliances"}, want: 2},
		{name: "exact product", filter: Filter{Product: "Blender"}, want: 2},
		{name: "partial product", filter: Filter{Product: "mech key"}, want: 1},
		{name: "combined", filter: Filter{From: day(2024, 1, 2), Category: "Appliances"}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Apply(txs); len(got) != tt.want {
				t.Errorf("Apply() returned %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

func TestProductPerformance(t *testing.T) {
	txs := []models.Transaction{
		sale(day(2024, 1, 1), "Blender", "Appliances", 100, 20),
		sale(day(2024, 1, 2), "Blender", "Appliances", 100, 20),
		sale(day(2024, 1, 2), "Desk Lamp", "Furniture", 300, 30),
		sale(day(2024, 1, 3), "Smart Watch", "Wearables", 200, 80),
	}
	txs[1].CustomerID = "someone-else"

	got := ProductPerformance(txs)

	wantOrder := []string{"Desk Lamp", "Smart Watch", "Blender"}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d products, got %d", len(wantOrder), len(got))
	}
	for i, name := range wantOrder {
		if got[i].Name != name {
			t.Errorf("rank %d = %s, want %s", i, got[i].Name, name)
		}
	}

	blender := got[2]
	if blender.Transactions != 2 || blender.Quantity != 2 || blender.UniqueCustomers != 2 {
		t.Errorf("unexpected Blender counts: %+v", blender)
	}
	if blender.ProfitMargin != 20 || blender.AvgOrderValue != 100 || blender.AvgPrice != 100 {
		t.Errorf("unexpected Blender ratios: %+v", blender)
	}
}

func TestProductPerformance_TiesKeepCatalogOrder(t *testing.T) {
	txs := []models.Transaction{
		sale(day(2024, 1, 1), "Blender", "Appliances", 100, 10),
		sale(day(2024, 1, 1), "Laptop Pro", "Electronics", 100, 10),
	}
	got := ProductPerformance(txs)
	if got[0].Name != "Laptop Pro" {
		t.Errorf("expected catalog order on ties, got %s first", got[0].Name)
	}
}

func TestCategoryAndChannelPerformance(t *testing.T) {
	txs := generated(t, 30)

	var total float64
	for _, tx := range txs {
		total += tx.Revenue
	}

	for name, groups := range map[string][]models.GroupPerformance{
		"category": CategoryPerformance(txs),
		"channel":  ChannelPerformance(txs),
	} {
		var sum float64
		for i, g := range groups {
			sum += g.Revenue
			if i > 0 && g.Revenue > groups[i-1].Revenue {
				t.Errorf("%s groups not sorted by revenue at %d", name, i)
			}
		}
		if !almostEqual(sum, total) {
			t.Errorf("%s revenue %f does not add up to %f", name, sum, total)
		}
	}
}

func TestQuarterlyPerformance(t *testing.T) {
	txs := []models.Transaction{
		sale(day(2024, 4, 1), "Blender", "Appliances", 50, 5),
		sale(day(2023, 12, 31), "Blender", "Appliances", 10, 1),
		sale(day(2024, 1, 1), "Blender", "Appliances", 20, 2),
		sale(day(2024, 3, 31), "Blender", "Appliances", 30, 3),
	}

	got := QuarterlyPerformance(txs)

	want := []struct {
		year, quarter int
		revenue       float64
	}{
		{2023, 4, 10},
		{2024, 1, 50},
		{2024, 2, 50},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d quarters, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Year != w.year || got[i].Quarter != w.quarter || got[i].Revenue != w.revenue {
			t.Errorf("quarter %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestSummarizeInventory(t *testing.T) {
	inv := []models.InventoryRecord{
		{Product: "Blender", Category: "Appliances", CurrentStock: 10, ReorderPoint: 20, DaysOfInventory: 2},
		{Product: "Coffee Maker", Category: "Appliances", CurrentStock: 100, ReorderPoint: 20, DaysOfInventory: 30},
		{Product: "Laptop Pro", Category: "Electronics", CurrentStock: 50, ReorderPoint: 50, DaysOfInventory: 10},
	}

	s := SummarizeInventory(inv)

	if s.TotalProducts != 3 || s.NeedsRestock != 2 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if len(s.LowStock) != 1 || s.LowStock[0].Product != "Blender" {
		t.Errorf("unexpected low stock list: %+v", s.LowStock)
	}
	if !almostEqual(s.AvgDaysOfInventory, 14) {
		t.Errorf("AvgDaysOfInventory = %f, want 14", s.AvgDaysOfInventory)
	}
	// Electronics precedes Appliances in the catalog.
	if len(s.ByCategory) != 2 || s.ByCategory[0].Category != "Electronics" || s.ByCategory[1].DaysOfInventory != 16 {
		t.Errorf("unexpected category breakdown: %+v", s.ByCategory)
	}

	empty := SummarizeInventory(nil)
	if empty.TotalProducts != 0 || empty.LowStock == nil {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}

func TestRecentTransactions(t *testing.T) {
	txs := []models.Transaction{
		sale(day(2024, 1, 1), "Blender", "Appliances", 1, 0),
		sale(day(2024, 1, 3), "Blender", "Appliances", 2, 0),
		sale(day(2024, 1, 3), "Desk Lamp", "Furniture", 3, 0),
		sale(day(2024, 1, 2), "Blender", "Appliances", 4, 0),
	}

	got := RecentTransactions(txs, 3)

	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Revenue != w {
			t.Errorf("row %d revenue = %f, want %f", i, got[i].Revenue, w)
		}
	}
	if txs[0].Revenue != 1 {
		t.Error("input order was modified")
	}
}

func TestOverview(t *testing.T) {
	txs := []models.Transaction{
		sale(day(2024, 1, 3), "Blender", "Appliances", 10, 1),
		sale(day(2024, 1, 1), "Desk Lamp", "Furniture", 20, 2),
		sale(day(2024, 1, 2), "Blender", "Appliances", 30, 3),
	}

	o := Overview(txs)

	if o.Records != 3 || o.Products != 2 || o.Customers != 2 {
		t.Errorf("unexpected counts: %+v", o)
	}
	if !o.FirstDate.Equal(day(2024, 1, 1)) || !o.LastDate.Equal(day(2024, 1, 3)) {
		t.Errorf("unexpected range: %v - %v", o.FirstDate, o.LastDate)
	}
	if o.TotalRevenue != 60 || o.TotalProfit != 6 {
		t.Errorf("unexpected totals: %+v", o)
	}
}
