package services

import (
	"time"

	"github.com/montanaflynn/stats"

	"ceo-dashboard/internal/models"
)

// AnalyzeTrends builds the month-over-month view of a transaction table.
// Months between the first and last month with no transactions appear with
// zero totals. Growth is nil for the first month and for any month that
// follows a zero month.
func AnalyzeTrends(txs []models.Transaction) models.TrendSummary {
	summary := models.TrendSummary{Monthly: []models.MonthlyTrend{}}
	if len(txs) == 0 {
		return summary
	}

	buckets := Resample(txs, models.PeriodMonth, ResampleOptions{Dense: true})
	revenues := make([]float64, len(buckets))
	profits := make([]float64, len(buckets))
	for i, b := range buckets {
		row := models.MonthlyTrend{
			Month:        b.PeriodStart,
			Revenue:      b.Revenue,
			Profit:       b.Profit,
			Transactions: b.TransactionCount,
		}
		if i > 0 {
			prev := buckets[i-1]
			row.RevenueGrowth = growth(b.Revenue, prev.Revenue)
			row.ProfitGrowth = growth(b.Profit, prev.Profit)
		}
		summary.Monthly = append(summary.Monthly, row)
		revenues[i] = b.Revenue
		profits[i] = b.Profit
	}

	summary.AvgMonthlyRevenue, _ = stats.Mean(revenues)
	summary.AvgMonthlyProfit, _ = stats.Mean(profits)
	summary.RevenueVolatility = volatility(revenues)

	summary.BestMonth, summary.WorstMonth = extremeMonths(txs)
	summary.BestDay, summary.WorstDay = extremeWeekdays(txs)
	return summary
}

func growth(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	g := (current - previous) / previous * 100
	return &g
}

// volatility is the coefficient of variation of monthly totals in percent.
func volatility(totals []float64) float64 {
	if len(totals) < 2 {
		return 0
	}
	mean, err := stats.Mean(totals)
	if err != nil || mean == 0 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(totals)
	if err != nil {
		return 0
	}
	return sd / mean * 100
}

// extremeMonths ranks calendar months 1-12 by mean revenue per transaction.
// Ties go to the lowest month number. Zero means no data.
func extremeMonths(txs []models.Transaction) (best, worst int) {
	var sums [13]float64
	var counts [13]int
	for _, tx := range txs {
		m := int(tx.Date.Month())
		sums[m] += tx.Revenue
		counts[m]++
	}
	means := make([]float64, 13)
	for m := 1; m <= 12; m++ {
		if counts[m] > 0 {
			means[m] = sums[m] / float64(counts[m])
		}
	}
	return extremes(means[1:], counts[1:], 1)
}

// extremeWeekdays ranks weekdays 0-6 (Monday=0) by mean revenue per
// transaction.
func extremeWeekdays(txs []models.Transaction) (best, worst int) {
	var sums [7]float64
	var counts [7]int
	for _, tx := range txs {
		d := isoWeekday(tx.Date)
		sums[d] += tx.Revenue
		counts[d]++
	}
	means := make([]float64, 7)
	for d := range 7 {
		if counts[d] > 0 {
			means[d] = sums[d] / float64(counts[d])
		}
	}
	return extremes(means, counts[:], 0)
}

func extremes(means []float64, counts []int, base int) (best, worst int) {
	found := false
	var hi, lo float64
	for i, v := range means {
		if counts[i] == 0 {
			continue
		}
		if !found {
			hi, lo, best, worst, found = v, v, i+base, i+base, true
			continue
		}
		if v > hi {
			hi, best = v, i+base
		}
		if v < lo {
			lo, worst = v, i+base
		}
	}
	return best, worst
}

func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
