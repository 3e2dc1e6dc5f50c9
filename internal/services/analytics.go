package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ceo-dashboard/internal/forecast"
	"ceo-dashboard/internal/models"
	"ceo-dashboard/internal/storage"
)

// ErrNoData is returned by views that need at least one transaction.
var ErrNoData = errors.New("no transactions match the filter")

// Forecaster projects a metric series forward.
type Forecaster interface {
	Predict(ctx context.Context, series []models.SeriesPoint, period models.Period, horizon int) ([]models.ForecastPoint, error)
}

// dataset is an immutable snapshot of both tables. It is replaced wholesale
// and never mutated after publication.
type dataset struct {
	transactions []models.Transaction
	inventory    []models.InventoryRecord
	loadedAt     time.Time
}

// Analytics serves every dashboard view from the current snapshot. Each
// call recomputes from the tables; nothing is memoized.
type Analytics struct {
	mu         sync.RWMutex
	data       *dataset
	forecaster Forecaster
	queries    atomic.Int64
	logger     *slog.Logger
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

func WithForecaster(f Forecaster) Option {
	return func(a *Analytics) { a.forecaster = f }
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		data:       &dataset{},
		forecaster: forecast.NewModel(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData publishes a new snapshot. The slices are owned by Analytics from
// here on.
func (a *Analytics) SetData(txs []models.Transaction, inv []models.InventoryRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = &dataset{transactions: txs, inventory: inv, loadedAt: time.Now()}
}

// Load reads the table pair from the store, generating any missing table.
func (a *Analytics) Load(ctx context.Context, store *storage.Store, gen storage.TableGenerator, opts storage.GenerateOptions) error {
	start := time.Now()
	tables, err := store.LoadOrGenerate(ctx, gen, opts)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	a.SetData(tables.Transactions, tables.Inventory)
	a.logger.Info("analytics data ready",
		"transactions", len(tables.Transactions),
		"inventory", len(tables.Inventory),
		"duration", time.Since(start))
	return nil
}

// Regenerate replaces both tables with freshly generated ones.
func (a *Analytics) Regenerate(ctx context.Context, store *storage.Store, gen storage.TableGenerator, opts storage.GenerateOptions) error {
	tables, err := store.Regenerate(ctx, gen, opts)
	if err != nil {
		return fmt.Errorf("regenerate tables: %w", err)
	}
	a.SetData(tables.Transactions, tables.Inventory)
	a.logger.Info("analytics data regenerated", "transactions", len(tables.Transactions))
	return nil
}

func (a *Analytics) snapshot() *dataset {
	a.queries.Add(1)
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data
}

func (a *Analytics) transactions(f Filter) []models.Transaction {
	return f.Apply(a.snapshot().transactions)
}

func (a *Analytics) KPIs(f Filter) models.KPISnapshot {
	return ComputeKPIs(a.transactions(f))
}

func (a *Analytics) TimeSeries(f Filter, period models.Period, opts ResampleOptions) []models.Bucket {
	return Resample(a.transactions(f), period, opts)
}

func (a *Analytics) Series(f Filter, metric models.Metric, period models.Period, opts ResampleOptions) []models.SeriesPoint {
	return SeriesFor(a.TimeSeries(f, period, opts), metric)
}

func (a *Analytics) Trends(f Filter) models.TrendSummary {
	return AnalyzeTrends(a.transactions(f))
}

// Forecast projects metric over horizon periods. The history is resampled
// densely so that quiet days count as zero. Forecaster failures, panics
// included, come back as errors.
func (a *Analytics) Forecast(ctx context.Context, f Filter, metric models.Metric, period models.Period, horizon int) (result *models.Forecast, err error) {
	history := a.Series(f, metric, period, ResampleOptions{Dense: true})
	if len(history) == 0 {
		return nil, ErrNoData
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("forecaster panic", "metric", metric, "panic", r)
			result, err = nil, fmt.Errorf("forecaster panic: %v", r)
		}
	}()

	points, err := a.forecaster.Predict(ctx, history, period, horizon)
	if err != nil {
		a.logger.Warn("forecast failed", "metric", metric, "period", period, "error", err)
		return nil, err
	}
	return &models.Forecast{
		Metric:  metric,
		Period:  period,
		History: history,
		Points:  points,
		Summary: forecast.Summarize(points),
	}, nil
}

func (a *Analytics) Products(f Filter) []models.GroupPerformance {
	return ProductPerformance(a.transactions(f))
}

func (a *Analytics) Categories(f Filter) []models.GroupPerformance {
	return CategoryPerformance(a.transactions(f))
}

func (a *Analytics) Channels(f Filter) []models.GroupPerformance {
	return ChannelPerformance(a.transactions(f))
}

func (a *Analytics) Quarters(f Filter) []models.QuarterPerformance {
	return QuarterlyPerformance(a.transactions(f))
}

func (a *Analytics) Inventory() models.InventorySummary {
	return SummarizeInventory(a.snapshot().inventory)
}

func (a *Analytics) RecentTransactions(f Filter, n int) []models.Transaction {
	return RecentTransactions(a.transactions(f), n)
}

func (a *Analytics) Overview(f Filter) models.DataOverview {
	return Overview(a.transactions(f))
}

// DateRange reports the first and last transaction day.
func (a *Analytics) DateRange() (first, last time.Time, ok bool) {
	txs := a.snapshot().transactions
	for i, tx := range txs {
		if i == 0 || tx.Date.Before(first) {
			first = tx.Date
		}
		if i == 0 || tx.Date.After(last) {
			last = tx.Date
		}
	}
	return first, last, len(txs) > 0
}

// Stats is used by the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	data := a.data
	a.mu.RUnlock()

	stats := map[string]any{
		"transactions": len(data.transactions),
		"inventory":    len(data.inventory),
		"loaded_at":    data.loadedAt,
		"queries":      a.queries.Load(),
	}
	if first, last, ok := a.DateRange(); ok {
		stats["first_date"] = first.Format(time.DateOnly)
		stats["last_date"] = last.Format(time.DateOnly)
	}
	return stats
}
