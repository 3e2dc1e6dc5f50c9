// Package templates renders the dashboard page. The page is a shell: every
// figure arrives later through the /sse endpoints.
package templates

import (
	"encoding/json"
)

const defaultTitle = "CEO Dashboard"

type DashboardProps struct {
	Title     string
	Provider  string
	FirstDate string
	LastDate  string
}

func (p DashboardProps) title() string {
	if p.Title == "" {
		return defaultTitle
	}
	return p.Title
}

// dashboardSignals is the initial Datastar signal store. Chart series start
// empty so the data-effect handlers see arrays, never null.
type dashboardSignals struct {
	RevenueData    []any  `json:"revenueData"`
	ForecastData   []any  `json:"forecastData"`
	ProductsData   []any  `json:"productsData"`
	CategoriesData []any  `json:"categoriesData"`
	ChannelsData   []any  `json:"channelsData"`
	From           string `json:"from"`
	To             string `json:"to"`
	Category       string `json:"category"`
	Product        string `json:"product"`
	Period         string `json:"period"`
}

// signals encodes the store as JSON; the attribute escaping templ applies on
// top is undone by the browser before Datastar parses it.
func (p DashboardProps) signals() string {
	b, err := json.Marshal(dashboardSignals{
		RevenueData:    []any{},
		ForecastData:   []any{},
		ProductsData:   []any{},
		CategoriesData: []any{},
		ChannelsData:   []any{},
		From:           p.FirstDate,
		To:             p.LastDate,
		Period:         "day",
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}
