package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"ceo-dashboard/internal/models"
)

type ResampleOptions struct {
	// Dense fills periods without transactions with zero rows.
	Dense bool
}

func ParsePeriod(s string) (models.Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "d", "day", "daily":
		return models.PeriodDay, nil
	case "w", "week", "weekly":
		return models.PeriodWeek, nil
	case "m", "month", "monthly":
		return models.PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

func ParseMetric(s string) (models.Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "revenue":
		return models.MetricRevenue, nil
	case "profit", "total_profit":
		return models.MetricProfit, nil
	case "transactions", "transaction_count":
		return models.MetricTransactions, nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

// PeriodStart aligns t to the start of its calendar bucket: midnight for
// days, Monday for weeks, the 1st for months.
func PeriodStart(t time.Time, p models.Period) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch p {
	case models.PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case models.PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Resample partitions transactions into calendar buckets, ascending by
// period start with no duplicates.
func Resample(txs []models.Transaction, p models.Period, opts ResampleOptions) []models.Bucket {
	acc := make(map[time.Time]*models.Bucket)
	for _, tx := range txs {
		start := PeriodStart(tx.Date, p)
		b, ok := acc[start]
		if !ok {
			b = &models.Bucket{PeriodStart: start}
			acc[start] = b
		}
		b.Revenue += tx.Revenue
		b.Profit += tx.TotalProfit
		b.TransactionCount++
	}
	return collect(acc, p, opts.Dense)
}

// ResampleBuckets re-aggregates an existing series into p. Resampling a
// series into its own period returns it unchanged.
func ResampleBuckets(buckets []models.Bucket, p models.Period) []models.Bucket {
	acc := make(map[time.Time]*models.Bucket)
	for _, in := range buckets {
		start := PeriodStart(in.PeriodStart, p)
		b, ok := acc[start]
		if !ok {
			b = &models.Bucket{PeriodStart: start}
			acc[start] = b
		}
		b.Revenue += in.Revenue
		b.Profit += in.Profit
		b.TransactionCount += in.TransactionCount
	}
	return collect(acc, p, false)
}

func collect(acc map[time.Time]*models.Bucket, p models.Period, dense bool) []models.Bucket {
	out := make([]models.Bucket, 0, len(acc))
	for _, b := range acc {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b models.Bucket) int {
		return a.PeriodStart.Compare(b.PeriodStart)
	})
	if !dense || len(out) < 2 {
		return out
	}

	filled := make([]models.Bucket, 0, len(out))
	next := out[0].PeriodStart
	for _, b := range out {
		for next.Before(b.PeriodStart) {
			filled = append(filled, models.Bucket{PeriodStart: next})
			next = p.Next(next)
		}
		filled = append(filled, b)
		next = p.Next(b.PeriodStart)
	}
	return filled
}

// SeriesFor projects one metric of a resampled series into the two-column
// form consumed by the forecaster.
func SeriesFor(buckets []models.Bucket, metric models.Metric) []models.SeriesPoint {
	out := make([]models.SeriesPoint, len(buckets))
	for i, b := range buckets {
		var v float64
		switch metric {
		case models.MetricProfit:
			v = b.Profit
		case models.MetricTransactions:
			v = float64(b.TransactionCount)
		default:
			v = b.Revenue
		}
		out[i] = models.SeriesPoint{PeriodStart: b.PeriodStart, Value: v}
	}
	return out
}
