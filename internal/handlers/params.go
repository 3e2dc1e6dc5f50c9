package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ceo-dashboard/internal/forecast"
	"ceo-dashboard/internal/models"
	"ceo-dashboard/internal/services"
)

const (
	defaultRecent = 10
	maxRecent     = 500
)

// query holds the analytic query parameters shared by the API and SSE
// routes.
type query struct {
	filter  services.Filter
	period  models.Period
	metric  models.Metric
	dense   bool
	horizon int
	limit   int
}

func parseQuery(values url.Values) (query, error) {
	var q query
	var err error

	if q.filter, err = parseFilter(values); err != nil {
		return q, err
	}
	if q.period, err = services.ParsePeriod(values.Get("period")); err != nil {
		return q, err
	}
	if q.metric, err = services.ParseMetric(values.Get("metric")); err != nil {
		return q, err
	}
	if v := values.Get("dense"); v != "" {
		if q.dense, err = strconv.ParseBool(v); err != nil {
			return q, fmt.Errorf("invalid dense flag %q", v)
		}
	}
	if q.horizon, err = intParam(values, "horizon", forecast.DefaultHorizon, 1, forecast.MaxHorizon); err != nil {
		return q, err
	}
	if q.limit, err = intParam(values, "limit", defaultRecent, 1, maxRecent); err != nil {
		return q, err
	}
	return q, nil
}

func parseFilter(values url.Values) (services.Filter, error) {
	f := services.Filter{
		Category: strings.TrimSpace(values.Get("category")),
		Product:  strings.TrimSpace(values.Get("product")),
	}
	var err error
	if f.From, err = dateParam(values, "from"); err != nil {
		return f, err
	}
	if f.To, err = dateParam(values, "to"); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("to (%s) is before from (%s)", f.To.Format(time.DateOnly), f.From.Format(time.DateOnly))
	}
	return f, nil
}

func dateParam(values url.Values, name string) (time.Time, error) {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q, want YYYY-MM-DD", name, v)
	}
	return t, nil
}

func intParam(values url.Values, name string, def, lo, hi int) (int, error) {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %q, want an integer in [%d, %d]", name, v, lo, hi)
	}
	return n, nil
}
