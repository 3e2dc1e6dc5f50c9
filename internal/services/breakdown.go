package services

import (
	"slices"
	"strings"
	"time"

	"ceo-dashboard/internal/catalog"
	"ceo-dashboard/internal/models"
)

// Filter narrows a transaction table before any view is computed. Zero
// values match everything. From and To are inclusive calendar days.
type Filter struct {
	From     time.Time
	To       time.Time
	Category string
	Product  string
}

func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && f.Category == "" && f.Product == ""
}

// Apply returns the matching rows in their original order. The product is
// resolved against the catalog so that partial names still match.
func (f Filter) Apply(txs []models.Transaction) []models.Transaction {
	if f.IsZero() {
		return txs
	}
	product := f.Product
	if product != "" {
		if resolved, ok := catalog.Resolve(product); ok {
			product = resolved
		}
	}

	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !f.From.IsZero() && tx.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && tx.Date.After(f.To) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(tx.Category, f.Category) {
			continue
		}
		if product != "" && !strings.EqualFold(tx.Product, product) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

type groupAcc struct {
	revenue   float64
	profit    float64
	quantity  int
	count     int
	customers map[string]struct{}
}

func groupBy(txs []models.Transaction, key func(models.Transaction) string, preferred []string) []models.GroupPerformance {
	acc := make(map[string]*groupAcc)
	var seen []string
	for _, tx := range txs {
		k := key(tx)
		g, ok := acc[k]
		if !ok {
			g = &groupAcc{customers: make(map[string]struct{})}
			acc[k] = g
			seen = append(seen, k)
		}
		g.revenue += tx.Revenue
		g.profit += tx.TotalProfit
		g.quantity += tx.Quantity
		g.count++
		g.customers[tx.CustomerID] = struct{}{}
	}

	out := make([]models.GroupPerformance, 0, len(acc))
	for _, name := range groupOrder(preferred, seen) {
		g, ok := acc[name]
		if !ok {
			continue
		}
		out = append(out, models.GroupPerformance{
			Name:            name,
			Revenue:         g.revenue,
			Profit:          g.profit,
			Quantity:        g.quantity,
			Transactions:    g.count,
			UniqueCustomers: len(g.customers),
			ProfitMargin:    ratio(g.profit, g.revenue) * 100,
			AvgOrderValue:   ratio(g.revenue, float64(g.count)),
			AvgPrice:        ratio(g.revenue, float64(g.quantity)),
		})
	}
	// Stable sort keeps catalog order among equal revenues.
	slices.SortStableFunc(out, func(a, b models.GroupPerformance) int {
		switch {
		case a.Revenue > b.Revenue:
			return -1
		case a.Revenue < b.Revenue:
			return 1
		default:
			return 0
		}
	})
	return out
}

// ProductPerformance ranks products by revenue, highest first.
func ProductPerformance(txs []models.Transaction) []models.GroupPerformance {
	return groupBy(txs, func(tx models.Transaction) string { return tx.Product }, catalog.ProductNames())
}

func CategoryPerformance(txs []models.Transaction) []models.GroupPerformance {
	return groupBy(txs, func(tx models.Transaction) string { return tx.Category }, catalog.CategoryNames())
}

func ChannelPerformance(txs []models.Transaction) []models.GroupPerformance {
	return groupBy(txs, func(tx models.Transaction) string { return tx.MarketingChannel }, catalog.ChannelNames())
}

// QuarterlyPerformance groups by calendar quarter in chronological order.
func QuarterlyPerformance(txs []models.Transaction) []models.QuarterPerformance {
	type key struct{ year, quarter int }
	acc := make(map[key]*groupAcc)
	for _, tx := range txs {
		k := key{tx.Date.Year(), (int(tx.Date.Month())-1)/3 + 1}
		g, ok := acc[k]
		if !ok {
			g = &groupAcc{customers: make(map[string]struct{})}
			acc[k] = g
		}
		g.revenue += tx.Revenue
		g.profit += tx.TotalProfit
		g.count++
		g.customers[tx.CustomerID] = struct{}{}
	}

	out := make([]models.QuarterPerformance, 0, len(acc))
	for k, g := range acc {
		out = append(out, models.QuarterPerformance{
			Year:            k.year,
			Quarter:         k.quarter,
			Revenue:         g.revenue,
			Profit:          g.profit,
			Transactions:    g.count,
			UniqueCustomers: len(g.customers),
			ProfitMargin:    ratio(g.profit, g.revenue) * 100,
			AvgOrderValue:   ratio(g.revenue, float64(g.count)),
		})
	}
	slices.SortFunc(out, func(a, b models.QuarterPerformance) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.Quarter - b.Quarter
	})
	return out
}

// lowStockDays marks records that will run out within a week.
const lowStockDays = 7

func SummarizeInventory(inv []models.InventoryRecord) models.InventorySummary {
	summary := models.InventorySummary{
		TotalProducts: len(inv),
		LowStock:      []models.InventoryRecord{},
		ByCategory:    []models.CategoryDays{},
	}
	if len(inv) == 0 {
		return summary
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	var seen []string
	var total float64
	for _, rec := range inv {
		if rec.NeedsRestock() {
			summary.NeedsRestock++
		}
		if rec.DaysOfInventory < lowStockDays {
			summary.LowStock = append(summary.LowStock, rec)
		}
		if _, ok := counts[rec.Category]; !ok {
			seen = append(seen, rec.Category)
		}
		sums[rec.Category] += rec.DaysOfInventory
		counts[rec.Category]++
		total += rec.DaysOfInventory
	}
	summary.AvgDaysOfInventory = total / float64(len(inv))

	for _, cat := range groupOrder(catalog.CategoryNames(), seen) {
		if n := counts[cat]; n > 0 {
			summary.ByCategory = append(summary.ByCategory, models.CategoryDays{
				Category:        cat,
				DaysOfInventory: sums[cat] / float64(n),
			})
		}
	}
	return summary
}

// RecentTransactions returns up to n rows, newest first. Rows on the same
// day keep their table order.
func RecentTransactions(txs []models.Transaction, n int) []models.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b models.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Overview summarizes the whole table for free-form questions.
func Overview(txs []models.Transaction) models.DataOverview {
	o := models.DataOverview{Records: len(txs)}
	products := make(map[string]struct{})
	customers := make(map[string]struct{})
	for i, tx := range txs {
		if i == 0 || tx.Date.Before(o.FirstDate) {
			o.FirstDate = tx.Date
		}
		if i == 0 || tx.Date.After(o.LastDate) {
			o.LastDate = tx.Date
		}
		o.TotalRevenue += tx.Revenue
		o.TotalProfit += tx.TotalProfit
		products[tx.Product] = struct{}{}
		customers[tx.CustomerID] = struct{}{}
	}
	o.Products = len(products)
	o.Customers = len(customers)
	return o
}
