package services

import (
	"time"

	"ceo-dashboard/internal/catalog"
	"ceo-dashboard/internal/models"
)

const kpiWindowDays = 30

// LatestDate returns the most recent transaction date and false for an
// empty table.
func LatestDate(txs []models.Transaction) (time.Time, bool) {
	var latest time.Time
	for i, tx := range txs {
		if i == 0 || tx.Date.After(latest) {
			latest = tx.Date
		}
	}
	return latest, len(txs) > 0
}

// ComputeKPIs reduces a transaction table to the 30-day KPI snapshot. The
// recent window is [latest-30d, latest] and the comparison window is
// [latest-60d, latest-30d). The input is not modified.
func ComputeKPIs(txs []models.Transaction) models.KPISnapshot {
	snap := models.KPISnapshot{
		TopProduct:  models.NoData,
		TopCategory: models.NoData,
		BestChannel: models.NoData,
	}

	latest, ok := LatestDate(txs)
	if !ok {
		return snap
	}
	recentStart := latest.AddDate(0, 0, -kpiWindowDays)
	prevStart := latest.AddDate(0, 0, -2*kpiWindowDays)

	var prevRevenue, prevProfit float64
	products := newSumTracker()
	categories := newSumTracker()
	channels := newSumTracker()

	for _, tx := range txs {
		switch {
		case !tx.Date.Before(recentStart) && !tx.Date.After(latest):
			snap.TotalRevenue30d += tx.Revenue
			snap.TotalProfit30d += tx.TotalProfit
			snap.TotalTransactions30d++
			products.add(tx.Product, tx.Revenue)
			categories.add(tx.Category, tx.Revenue)
			channels.add(tx.MarketingChannel, tx.Revenue)
		case !tx.Date.Before(prevStart) && tx.Date.Before(recentStart):
			prevRevenue += tx.Revenue
			prevProfit += tx.TotalProfit
		}
	}

	snap.AvgOrderValue30d = ratio(snap.TotalRevenue30d, float64(snap.TotalTransactions30d))
	if snap.TotalRevenue30d > 0 {
		snap.ProfitMargin30d = snap.TotalProfit30d / snap.TotalRevenue30d * 100
	}
	snap.RevenueGrowth = percentChange(snap.TotalRevenue30d, prevRevenue)
	snap.ProfitGrowth = percentChange(snap.TotalProfit30d, prevProfit)

	snap.TopProduct = products.top(catalog.ProductNames(), models.NoData)
	snap.TopCategory = categories.top(catalog.CategoryNames(), models.NoData)
	snap.BestChannel = channels.top(catalog.ChannelNames(), models.NoData)

	return snap
}
