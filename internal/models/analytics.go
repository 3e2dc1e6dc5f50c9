package models

import "time"

// NoData is reported for group-by metrics computed over an empty window.
const NoData = "N/A"

type KPISnapshot struct {
	TotalRevenue30d      float64 `json:"total_revenue_30d"`
	TotalProfit30d       float64 `json:"total_profit_30d"`
	TotalTransactions30d int     `json:"total_transactions_30d"`
	AvgOrderValue30d     float64 `json:"avg_order_value_30d"`
	ProfitMargin30d      float64 `json:"profit_margin_30d"`
	RevenueGrowth        float64 `json:"revenue_growth"`
	ProfitGrowth         float64 `json:"profit_growth"`
	TopProduct           string  `json:"top_product"`
	TopCategory          string  `json:"top_category"`
	BestChannel          string  `json:"best_channel"`
}

// Period is the calendar granularity of a resampled series.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Next returns the start of the bucket after start.
func (p Period) Next(start time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return start.AddDate(0, 0, 7)
	case PeriodMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Bucket is one period of a resampled series.
type Bucket struct {
	PeriodStart      time.Time `json:"period_start"`
	Revenue          float64   `json:"revenue"`
	Profit           float64   `json:"profit"`
	TransactionCount int       `json:"transactions"`
}

// Metric selects the value column handed to the forecaster.
type Metric string

const (
	MetricRevenue      Metric = "revenue"
	MetricProfit       Metric = "profit"
	MetricTransactions Metric = "transactions"
)

type SeriesPoint struct {
	PeriodStart time.Time `json:"ds"`
	Value       float64   `json:"y"`
}

// MonthlyTrend is one calendar month of the trend table. Growth fields are
// nil when there is no previous month to compare against.
type MonthlyTrend struct {
	Month         time.Time `json:"month"`
	Revenue       float64   `json:"revenue"`
	Profit        float64   `json:"total_profit"`
	Transactions  int       `json:"transactions"`
	RevenueGrowth *float64  `json:"revenue_growth"`
	ProfitGrowth  *float64  `json:"profit_growth"`
}

type TrendSummary struct {
	Monthly           []MonthlyTrend `json:"monthly_data"`
	BestMonth         int            `json:"best_month"`
	WorstMonth        int            `json:"worst_month"`
	BestDay           int            `json:"best_day"`
	WorstDay          int            `json:"worst_day"`
	AvgMonthlyRevenue float64        `json:"avg_monthly_revenue"`
	AvgMonthlyProfit  float64        `json:"avg_monthly_profit"`
	RevenueVolatility float64        `json:"revenue_volatility"`
}

type GroupPerformance struct {
	Name            string  `json:"name"`
	Revenue         float64 `json:"revenue"`
	Profit          float64 `json:"total_profit"`
	Quantity        int     `json:"quantity"`
	Transactions    int     `json:"transactions"`
	UniqueCustomers int     `json:"unique_customers"`
	ProfitMargin    float64 `json:"profit_margin"`
	AvgOrderValue   float64 `json:"avg_order_value"`
	AvgPrice        float64 `json:"avg_price"`
}

type QuarterPerformance struct {
	Year            int     `json:"year"`
	Quarter         int     `json:"quarter"`
	Revenue         float64 `json:"revenue"`
	Profit          float64 `json:"total_profit"`
	Transactions    int     `json:"transactions"`
	UniqueCustomers int     `json:"unique_customers"`
	ProfitMargin    float64 `json:"profit_margin"`
	AvgOrderValue   float64 `json:"avg_order_value"`
}

type CategoryDays struct {
	Category        string  `json:"category"`
	DaysOfInventory float64 `json:"days_of_inventory"`
}

type InventorySummary struct {
	TotalProducts      int               `json:"total_products"`
	NeedsRestock       int               `json:"needs_restock"`
	AvgDaysOfInventory float64           `json:"avg_days_of_inventory"`
	LowStock           []InventoryRecord `json:"low_stock"`
	ByCategory         []CategoryDays    `json:"by_category"`
}

type ForecastPoint struct {
	PeriodStart time.Time `json:"ds"`
	Point       float64   `json:"yhat"`
	Lower       float64   `json:"yhat_lower"`
	Upper       float64   `json:"yhat_upper"`
	Trend       float64   `json:"trend"`
}

type ForecastSummary struct {
	Next30Total     float64 `json:"next_30_days_total"`
	Next30Avg       float64 `json:"next_30_days_avg"`
	Next30Min       float64 `json:"next_30_days_min"`
	Next30Max       float64 `json:"next_30_days_max"`
	TrendDirection  string  `json:"trend_direction"`
	ConfidenceLower float64 `json:"confidence_lower"`
	ConfidenceUpper float64 `json:"confidence_upper"`
}

type Forecast struct {
	Metric  Metric          `json:"metric"`
	Period  Period          `json:"period"`
	History []SeriesPoint   `json:"history"`
	Points  []ForecastPoint `json:"forecast"`
	Summary ForecastSummary `json:"summary"`
}

// DataOverview describes the table a question is asked against.
type DataOverview struct {
	Records      int       `json:"records"`
	FirstDate    time.Time `json:"first_date"`
	LastDate     time.Time `json:"last_date"`
	TotalRevenue float64   `json:"total_revenue"`
	TotalProfit  float64   `json:"total_profit"`
	Products     int       `json:"products"`
	Customers    int       `json:"customers"`
}
