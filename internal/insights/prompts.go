package insights

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ceo-dashboard/internal/models"
)

// Prompt is a user message plus the system role that frames it.
type Prompt struct {
	User   string
	System string
}

const (
	systemKPI       = "You are an expert business analyst providing insights to CEOs and business owners."
	systemForecast  = "You are a strategic business advisor helping CEOs understand forecasts and make decisions."
	systemOverview  = "You are a senior business analyst and forecasting expert providing comprehensive business intelligence to CEOs and executive teams."
	systemProducts  = "You are a product strategy expert helping optimize product mix and performance."
	systemMarketing = "You are a marketing analytics expert helping optimize channel performance."
	systemQuestion  = "You are a business intelligence expert helping CEOs understand their data and make informed decisions."
	systemQuarterly = "You are a senior business analyst creating executive reports for CEOs and board members."
)

// printer renders money and counts with thousands separators.
var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func count(n int) string {
	return printer.Sprintf("%d", n)
}

func KPIPrompt(k models.KPISnapshot) Prompt {
	var b strings.Builder
	b.WriteString("As a business analyst, analyze these Key Performance Indicators and provide actionable insights:\n\n")
	fmt.Fprintf(&b, "Revenue (30 days): %s\n", money(k.TotalRevenue30d))
	fmt.Fprintf(&b, "Profit (30 days): %s\n", money(k.TotalProfit30d))
	fmt.Fprintf(&b, "Transactions (30 days): %s\n", count(k.TotalTransactions30d))
	fmt.Fprintf(&b, "Average Order Value: %s\n", money(k.AvgOrderValue30d))
	fmt.Fprintf(&b, "Profit Margin: %.1f%%\n", k.ProfitMargin30d)
	fmt.Fprintf(&b, "Revenue Growth: %.1f%%\n", k.RevenueGrowth)
	fmt.Fprintf(&b, "Profit Growth: %.1f%%\n", k.ProfitGrowth)
	fmt.Fprintf(&b, "Top Product: %s\n", k.TopProduct)
	fmt.Fprintf(&b, "Top Category: %s\n", k.TopCategory)
	fmt.Fprintf(&b, "Best Marketing Channel: %s\n\n", k.BestChannel)
	b.WriteString(`Provide:
1. A brief analysis of current performance
2. 3-5 specific, actionable recommendations
3. Areas of concern or opportunity
4. Next steps for the business owner

Format your response in a clear, professional manner suitable for a CEO dashboard.`)
	return Prompt{User: b.String(), System: systemKPI}
}

func ForecastPrompt(metric models.Metric, s models.ForecastSummary) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "As a business analyst, analyze this %s forecast and provide strategic insights:\n\n", metric)
	fmt.Fprintf(&b, "Next 30 Days Total: %s\n", money(s.Next30Total))
	fmt.Fprintf(&b, "Next 30 Days Average: %s\n", money(s.Next30Avg))
	fmt.Fprintf(&b, "Trend Direction: %s\n", s.TrendDirection)
	fmt.Fprintf(&b, "Confidence Range: %s - %s\n\n", money(s.ConfidenceLower), money(s.ConfidenceUpper))
	b.WriteString(`Provide:
1. What this forecast means for the business
2. Strategic implications of the trend
3. Recommended actions based on the forecast
4. Risk factors to consider
5. Opportunities to capitalize on

Keep the response concise and actionable for business decision-making.`)
	return Prompt{User: b.String(), System: systemForecast}
}

// ForecastOverviewPrompt asks for a report across several forecast
// metrics at once.
func ForecastOverviewPrompt(summaries map[models.Metric]models.ForecastSummary) Prompt {
	data := indentJSON(summaries)
	user := fmt.Sprintf(`As a senior business analyst and forecasting expert, provide a comprehensive business forecasting analysis:

FORECAST DATA:
%s

Please provide a detailed analysis including:
1. Executive Summary: overall outlook for the next 30 days and key trends across all metrics
2. Revenue Forecast Analysis: projections, seasonal factors and optimization strategies
3. Profit Forecast Analysis: margin trends, cost implications and profitability opportunities
4. Transaction Volume Analysis: customer behavior and sales volume projections
5. Strategic Recommendations: next 7, 30 and 90 days
6. Risk Assessment: challenges, volatility and contingency planning
7. Growth Opportunities: expansion, product optimization and marketing strategies
8. Operational Insights: resource allocation and inventory management

Format this as a professional business report suitable for executive leadership.`, data)
	return Prompt{User: user, System: systemOverview}
}

type productRow struct {
	Product      string  `json:"product"`
	Revenue      float64 `json:"revenue"`
	TotalProfit  float64 `json:"total_profit"`
	Quantity     int     `json:"quantity"`
	Transactions int     `json:"transactions"`
	ProfitMargin float64 `json:"profit_margin"`
	AvgPrice     float64 `json:"avg_price"`
}

// ProductPrompt expects products ranked by revenue, highest first.
func ProductPrompt(products []models.GroupPerformance) Prompt {
	rows := make([]productRow, len(products))
	for i, p := range products {
		rows[i] = productRow{
			Product:      p.Name,
			Revenue:      p.Revenue,
			TotalProfit:  p.Profit,
			Quantity:     p.Quantity,
			Transactions: p.Transactions,
			ProfitMargin: p.ProfitMargin,
			AvgPrice:     p.AvgPrice,
		}
	}

	top := rows[:min(5, len(rows))]
	bottom := slices.Clone(rows[max(0, len(rows)-5):])
	slices.Reverse(bottom)
	byMargin := slices.Clone(rows)
	slices.SortStableFunc(byMargin, func(a, b productRow) int {
		switch {
		case a.ProfitMargin > b.ProfitMargin:
			return -1
		case a.ProfitMargin < b.ProfitMargin:
			return 1
		default:
			return 0
		}
	})
	byMargin = byMargin[:min(5, len(byMargin))]

	user := fmt.Sprintf(`Analyze this product performance data and provide strategic recommendations:

TOP 5 PRODUCTS BY REVENUE:
%s

BOTTOM 5 PRODUCTS BY REVENUE:
%s

TOP 5 PRODUCTS BY PROFIT MARGIN:
%s

Provide:
1. Key insights about product performance
2. Recommendations for underperforming products
3. Opportunities to optimize high-margin products
4. Inventory and pricing strategies
5. Marketing focus recommendations

Focus on actionable business strategies.`, indentJSON(top), indentJSON(bottom), indentJSON(byMargin))
	return Prompt{User: user, System: systemProducts}
}

type channelRow struct {
	Channel                 string  `json:"marketing_channel"`
	Revenue                 float64 `json:"revenue"`
	TotalProfit             float64 `json:"total_profit"`
	Transactions            int     `json:"transactions"`
	Customers               int     `json:"customers"`
	AvgOrderValue           float64 `json:"avg_order_value"`
	ProfitMargin            float64 `json:"profit_margin"`
	CustomerAcquisitionCost float64 `json:"customer_acquisition_cost"`
}

func MarketingPrompt(channels []models.GroupPerformance) Prompt {
	rows := make([]channelRow, len(channels))
	for i, c := range channels {
		row := channelRow{
			Channel:       c.Name,
			Revenue:       c.Revenue,
			TotalProfit:   c.Profit,
			Transactions:  c.Transactions,
			Customers:     c.UniqueCustomers,
			AvgOrderValue: c.AvgOrderValue,
			ProfitMargin:  c.ProfitMargin,
		}
		// Revenue per customer stands in for acquisition cost.
		if c.UniqueCustomers > 0 {
			row.CustomerAcquisitionCost = c.Revenue / float64(c.UniqueCustomers)
		}
		rows[i] = row
	}

	user := fmt.Sprintf(`Analyze this marketing channel performance data:

%s

Provide:
1. Which channels are performing best and why
2. Marketing budget allocation recommendations
3. Channel-specific optimization strategies
4. Customer acquisition insights
5. ROI improvement opportunities

Focus on data-driven marketing decisions.`, indentJSON(rows))
	return Prompt{User: user, System: systemMarketing}
}

func QuarterlyPrompt(quarters []models.QuarterPerformance, k models.KPISnapshot) Prompt {
	var b strings.Builder
	b.WriteString("Generate a comprehensive quarterly business report based on this data:\n\nQUARTERLY PERFORMANCE:\n")
	fmt.Fprintf(&b, "%-6s %-4s %16s %16s %12s %10s %8s %10s\n", "year", "qtr", "revenue", "profit", "transactions", "customers", "margin", "aov")
	for _, q := range quarters {
		fmt.Fprintf(&b, "%-6d Q%-3d %16.2f %16.2f %12d %10d %7.1f%% %10.2f\n",
			q.Year, q.Quarter, q.Revenue, q.Profit, q.Transactions, q.UniqueCustomers, q.ProfitMargin, q.AvgOrderValue)
	}

	if len(quarters) > 0 {
		latest := quarters[len(quarters)-1]
		fmt.Fprintf(&b, "\nLATEST QUARTER (Q%d %d):\n", latest.Quarter, latest.Year)
		fmt.Fprintf(&b, "- Revenue: %s\n", money(latest.Revenue))
		fmt.Fprintf(&b, "- Profit: %s\n", money(latest.Profit))
		fmt.Fprintf(&b, "- Transactions: %s\n", count(latest.Transactions))
		fmt.Fprintf(&b, "- Customers: %s\n", count(latest.UniqueCustomers))
		fmt.Fprintf(&b, "- Profit Margin: %.1f%%\n", latest.ProfitMargin)
		fmt.Fprintf(&b, "- Average Order Value: %s\n", money(latest.AvgOrderValue))
	}

	b.WriteString("\nRECENT KPIs:\n")
	fmt.Fprintf(&b, "- 30-day Revenue: %s\n", money(k.TotalRevenue30d))
	fmt.Fprintf(&b, "- 30-day Growth: %.1f%%\n", k.RevenueGrowth)
	fmt.Fprintf(&b, "- Top Product: %s\n", k.TopProduct)
	fmt.Fprintf(&b, "- Best Channel: %s\n\n", k.BestChannel)
	b.WriteString(`Structure the report with:
1. Executive Summary
2. Financial Performance
3. Operational Highlights
4. Key Insights
5. Strategic Recommendations
6. Next Quarter Outlook

Make it professional and actionable for business leadership.`)
	return Prompt{User: b.String(), System: systemQuarterly}
}

// QuestionPrompt frames a free-form question with a description of the
// data. kpis may be nil.
func QuestionPrompt(question string, o models.DataOverview, kpis *models.KPISnapshot) Prompt {
	var b strings.Builder
	b.WriteString("Business Data Context:\n")
	fmt.Fprintf(&b, "- Total sales records: %s\n", count(o.Records))
	if o.Records > 0 {
		fmt.Fprintf(&b, "- Date range: %s to %s\n", o.FirstDate.Format(time.DateOnly), o.LastDate.Format(time.DateOnly))
	}
	fmt.Fprintf(&b, "- Total revenue: %s\n", money(o.TotalRevenue))
	fmt.Fprintf(&b, "- Total profit: %s\n", money(o.TotalProfit))
	fmt.Fprintf(&b, "- Number of products: %d\n", o.Products)
	fmt.Fprintf(&b, "- Number of customers: %s\n", count(o.Customers))
	if kpis != nil {
		b.WriteString("\nRecent KPIs (30 days):\n")
		fmt.Fprintf(&b, "- Revenue: %s\n", money(kpis.TotalRevenue30d))
		fmt.Fprintf(&b, "- Profit: %s\n", money(kpis.TotalProfit30d))
		fmt.Fprintf(&b, "- Growth: %.1f%%\n", kpis.RevenueGrowth)
	}
	fmt.Fprintf(&b, "\nBusiness Question: %s\n\n", strings.TrimSpace(question))
	b.WriteString(`Based on the available business data, provide a comprehensive answer to the question.
Include relevant metrics, insights, and actionable recommendations where appropriate.
If the question cannot be answered with the available data, explain what additional data would be needed.`)
	return Prompt{User: b.String(), System: systemQuestion}
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}
