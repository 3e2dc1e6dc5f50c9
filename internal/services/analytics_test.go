package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"ceo-dashboard/internal/forecast"
	"ceo-dashboard/internal/generator"
	"ceo-dashboard/internal/models"
	"ceo-dashboard/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type panickingForecaster struct{}

func (panickingForecaster) Predict(context.Context, []models.SeriesPoint, models.Period, int) ([]models.ForecastPoint, error) {
	panic("model blew up")
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.data == nil {
		t.Error("data should be initialized")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
	if a.forecaster == nil {
		t.Error("forecaster should default to the built-in model")
	}
}

func TestAnalytics_EmptyData(t *testing.T) {
	a := NewAnalytics(WithLogger(quietLogger()))

	if k := a.KPIs(Filter{}); k.TopProduct != models.NoData {
		t.Errorf("expected N/A top product, got %q", k.TopProduct)
	}
	if got := a.TimeSeries(Filter{}, models.PeriodDay, ResampleOptions{}); len(got) != 0 {
		t.Errorf("expected no buckets, got %d", len(got))
	}
	if got := a.Products(Filter{}); len(got) != 0 {
		t.Errorf("expected no products, got %d", len(got))
	}
	if _, err := a.Forecast(context.Background(), Filter{}, models.MetricRevenue, models.PeriodDay, 10); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
	if _, _, ok := a.DateRange(); ok {
		t.Error("DateRange should report no data")
	}
}

func TestAnalytics_SetDataAndViews(t *testing.T) {
	a := NewAnalytics(WithLogger(quietLogger()))
	txs := generated(t, 60)
	g := generator.New(7, func() time.Time { return day(2024, 5, 31) })
	a.SetData(txs, g.GenerateInventory())

	if got, want := a.KPIs(Filter{}), ComputeKPIs(txs); got != want {
		t.Errorf("KPIs() = %+v, want %+v", got, want)
	}
	if got := a.Inventory().TotalProducts; got != 20 {
		t.Errorf("Inventory().TotalProducts = %d, want 20", got)
	}

	filtered := a.KPIs(Filter{Category: "Audio"})
	if filtered.TopCategory != "Audio" {
		t.Errorf("filtered TopCategory = %q, want Audio", filtered.TopCategory)
	}

	series := a.Series(Filter{}, models.MetricTransactions, models.PeriodWeek, ResampleOptions{})
	var count float64
	for _, p := range series {
		count += p.Value
	}
	if int(count) != len(txs) {
		t.Errorf("weekly transaction series sums to %v, want %d", count, len(txs))
	}

	first, last, ok := a.DateRange()
	if !ok || !first.Equal(day(2024, 4, 1)) || !last.Equal(day(2024, 5, 31)) {
		t.Errorf("DateRange() = %v, %v, %v", first, last, ok)
	}

	stats := a.Stats()
	if stats["transactions"] != len(txs) || stats["inventory"] != 20 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestAnalytics_Forecast(t *testing.T) {
	a := NewAnalytics(WithLogger(quietLogger()))
	a.SetData(generated(t, 60), nil)

	fc, err := a.Forecast(context.Background(), Filter{}, models.MetricRevenue, models.PeriodDay, 45)
	if err != nil {
		t.Fatalf("Forecast() error: %v", err)
	}
	if len(fc.Points) != 45 {
		t.Errorf("expected 45 points, got %d", len(fc.Points))
	}
	if len(fc.History) != 61 {
		t.Errorf("expected 61 days of history, got %d", len(fc.History))
	}
	if !fc.Points[0].PeriodStart.Equal(day(2024, 6, 1)) {
		t.Errorf("forecast should start the day after the last observation, got %v", fc.Points[0].PeriodStart)
	}
	if fc.Summary.TrendDirection == "" {
		t.Error("summary should carry a trend direction")
	}
}

func TestAnalytics_ForecastErrorsAreValues(t *testing.T) {
	a := NewAnalytics(WithLogger(quietLogger()), WithForecaster(panickingForecaster{}))
	a.SetData(generated(t, 20), nil)
	before := a.KPIs(Filter{})

	if _, err := a.Forecast(context.Background(), Filter{}, models.MetricRevenue, models.PeriodDay, 5); err == nil {
		t.Fatal("expected an error from a panicking forecaster")
	}
	if after := a.KPIs(Filter{}); after != before {
		t.Error("forecaster failure changed the KPI snapshot")
	}

	one := NewAnalytics(WithLogger(quietLogger()))
	one.SetData([]models.Transaction{sale(day(2024, 1, 1), "Blender", "Appliances", 10, 1)}, nil)
	if _, err := one.Forecast(context.Background(), Filter{}, models.MetricRevenue, models.PeriodDay, 5); !errors.Is(err, forecast.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAnalytics_Load(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewStore(storage.NewFSBackend(dir), quietLogger())
	g := generator.New(11, func() time.Time { return day(2024, 2, 29) })
	opts := storage.GenerateOptions{Days: 10, BaseVolume: 200}

	a := NewAnalytics(WithLogger(quietLogger()))
	if err := a.Load(context.Background(), store, g, opts); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	generatedKPIs := a.KPIs(Filter{})

	b := NewAnalytics(WithLogger(quietLogger()))
	if err := b.Load(context.Background(), store, g, opts); err != nil {
		t.Fatalf("second Load() error: %v", err)
	}
	if b.KPIs(Filter{}) != generatedKPIs {
		t.Error("reloaded tables produced different KPIs")
	}
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := NewAnalytics(WithLogger(quietLogger()))
	txs := generated(t, 30)
	a.SetData(txs, nil)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%3 == 0 {
				a.SetData(txs, nil)
			}
			_ = a.KPIs(Filter{})
			_ = a.Trends(Filter{})
			_ = a.TimeSeries(Filter{}, models.PeriodMonth, ResampleOptions{Dense: true})
			_ = a.Channels(Filter{})
		}()
	}
	wg.Wait()
}

func BenchmarkAnalytics_KPIs(b *testing.B) {
	g := generator.New(1, func() time.Time { return day(2024, 12, 31) })
	a := NewAnalytics(WithLogger(quietLogger()))
	a.SetData(g.GenerateTransactions(365, 1000), nil)

	b.ResetTimer()
	for b.Loop() {
		_ = a.KPIs(Filter{})
	}
}
