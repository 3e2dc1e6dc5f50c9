package services

import (
	"slices"
	"testing"
	"time"

	"ceo-dashboard/internal/models"
)

func TestPeriodStart(t *testing.T) {
	// 2024-03-14 is a Thursday.
	ts := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		period models.Period
		want   time.Time
	}{
		{models.PeriodDay, day(2024, 3, 14)},
		{models.PeriodWeek, day(2024, 3, 11)},
		{models.PeriodMonth, day(2024, 3, 1)},
	}
	for _, tt := range tests {
		if got := PeriodStart(ts, tt.period); !got.Equal(tt.want) {
			t.Errorf("PeriodStart(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}

	sunday := day(2024, 3, 17)
	if got := PeriodStart(sunday, models.PeriodWeek); !got.Equal(day(2024, 3, 11)) {
		t.Errorf("Sunday should belong to the week starting Monday, got %v", got)
	}
}

func TestParsePeriodAndMetric(t *testing.T) {
	periods := map[string]models.Period{"": models.PeriodDay, "week": models.PeriodWeek, "M": models.PeriodMonth, "daily": models.PeriodDay}
	for in, want := range periods {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePeriod("fortnight"); err == nil {
		t.Error("expected error for unknown period")
	}

	metrics := map[string]models.Metric{"": models.MetricRevenue, "profit": models.MetricProfit, "transactions": models.MetricTransactions}
	for in, want := range metrics {
		got, err := ParseMetric(in)
		if err != nil || got != want {
			t.Errorf("ParseMetric(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMetric("margin"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestResample_SparseAndDense(t *testing.T) {
	txs := []models.Transaction{
		sale(day(2024, 1, 3), "Blender", "Appliances", 30, 3),
		sale(day(2024, 1, 1), "Blender", "Appliances", 10, 1),
		sale(day(2024, 1, 1), "Toaster", "Appliances", 20, 2),
	}

	sparse := Resample(txs, models.PeriodDay, ResampleOptions{})
	if len(sparse) != 2 {
		t.Fatalf("expected 2 sparse buckets, got %d", len(sparse))
	}
	if sparse[0].Revenue != 30 || sparse[0].TransactionCount != 2 || sparse[0].Profit != 3 {
		t.Errorf("unexpected first bucket %+v", sparse[0])
	}

	dense := Resample(txs, models.PeriodDay, ResampleOptions{Dense: true})
	if len(dense) != 3 {
		t.Fatalf("expected 3 dense buckets, got %d", len(dense))
	}
	if dense[1].PeriodStart != day(2024, 1, 2) || dense[1].TransactionCount != 0 {
		t.Errorf("expected zero-filled gap, got %+v", dense[1])
	}
}

func TestResample_OrderedWithoutDuplicates(t *testing.T) {
	txs := generated(t, 90)
	for _, p := range []models.Period{models.PeriodDay, models.PeriodWeek, models.PeriodMonth} {
		buckets := Resample(txs, p, ResampleOptions{})
		for i := 1; i < len(buckets); i++ {
			if !buckets[i].PeriodStart.After(buckets[i-1].PeriodStart) {
				t.Fatalf("%s buckets not strictly ascending at %d", p, i)
			}
		}
		var count int
		for _, b := range buckets {
			count += b.TransactionCount
		}
		if count != len(txs) {
			t.Errorf("%s buckets cover %d rows, want %d", p, count, len(txs))
		}
	}
}

func TestResampleBuckets_IdempotentByDay(t *testing.T) {
	daily := Resample(generated(t, 60), models.PeriodDay, ResampleOptions{})
	again := ResampleBuckets(daily, models.PeriodDay)
	if !slices.Equal(daily, again) {
		t.Error("resampling a daily series by day changed it")
	}
}

func TestResampleBuckets_DailyToMonthly(t *testing.T) {
	txs := generated(t, 75)
	direct := Resample(txs, models.PeriodMonth, ResampleOptions{})
	viaDaily := ResampleBuckets(Resample(txs, models.PeriodDay, ResampleOptions{}), models.PeriodMonth)

	if len(direct) != len(viaDaily) {
		t.Fatalf("bucket count %d vs %d", len(direct), len(viaDaily))
	}
	for i := range direct {
		if direct[i].TransactionCount != viaDaily[i].TransactionCount || !almostEqual(direct[i].Revenue, viaDaily[i].Revenue) {
			t.Errorf("month %v differs: %+v vs %+v", direct[i].PeriodStart, direct[i], viaDaily[i])
		}
	}
}

func TestResample_CrossCheckWithKPIs(t *testing.T) {
	txs := generated(t, 100)
	latest, _ := LatestDate(txs)
	start := latest.AddDate(0, 0, -30)

	var fromBuckets float64
	for _, b := range Resample(txs, models.PeriodDay, ResampleOptions{}) {
		if !b.PeriodStart.Before(start) && !b.PeriodStart.After(latest) {
			fromBuckets += b.Revenue
		}
	}

	if kpi := ComputeKPIs(txs).TotalRevenue30d; !almostEqual(fromBuckets, kpi) {
		t.Errorf("bucket sum %f differs from KPI revenue %f", fromBuckets, kpi)
	}
}

func TestSeriesFor(t *testing.T) {
	buckets := []models.Bucket{
		{PeriodStart: day(2024, 1, 1), Revenue: 10, Profit: 2, TransactionCount: 3},
	}
	tests := []struct {
		metric models.Metric
		want   float64
	}{
		{models.MetricRevenue, 10},
		{models.MetricProfit, 2},
		{models.MetricTransactions, 3},
	}
	for _, tt := range tests {
		got := SeriesFor(buckets, tt.metric)
		if len(got) != 1 || got[0].Value != tt.want || !got[0].PeriodStart.Equal(day(2024, 1, 1)) {
			t.Errorf("SeriesFor(%s) = %+v", tt.metric, got)
		}
	}
}
