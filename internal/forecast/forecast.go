// Package forecast projects a resampled metric series forward with a linear
// trend and, for daily data, an additive day-of-week component.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"ceo-dashboard/internal/models"
)

const (
	// DefaultHorizon is the number of future periods when none is requested.
	DefaultHorizon = 30
	MaxHorizon     = 365

	summaryWindow = 30

	// minSeasonalPoints is two full weeks of daily data.
	minSeasonalPoints = 14

	// z80 is the two-sided z-score of an 80% interval.
	z80 = 1.2816
)

var ErrInsufficientData = errors.New("forecast: at least two points are required")

// Model is a deterministic trend plus weekly seasonality forecaster. The
// zero value is ready to use.
type Model struct {
	// Z overrides the interval half-width in residual standard deviations.
	Z float64
}

func NewModel() *Model {
	return &Model{Z: z80}
}

// Predict fits series and returns horizon rows that start one period after
// the last observation.
func (m *Model) Predict(ctx context.Context, series []models.SeriesPoint, period models.Period, horizon int) ([]models.ForecastPoint, error) {
	if len(series) < 2 {
		return nil, ErrInsufficientData
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if horizon > MaxHorizon {
		return nil, fmt.Errorf("forecast: horizon %d exceeds %d", horizon, MaxHorizon)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fit, err := m.fit(series, period)
	if err != nil {
		return nil, err
	}

	z := m.Z
	if z == 0 {
		z = z80
	}
	width := z * fit.residualSD

	out := make([]models.ForecastPoint, 0, horizon)
	ds := series[len(series)-1].PeriodStart
	for k := 1; k <= horizon; k++ {
		ds = period.Next(ds)
		x := float64(len(series) - 1 + k)
		trend := fit.intercept + fit.slope*x
		point := trend + fit.seasonal(ds)
		out = append(out, models.ForecastPoint{
			PeriodStart: ds,
			Point:       point,
			Lower:       point - width,
			Upper:       point + width,
			Trend:       trend,
		})
	}
	return out, nil
}

type fitted struct {
	slope      float64
	intercept  float64
	weekly     []float64
	residualSD float64
}

func (f *fitted) seasonal(ds time.Time) float64 {
	if f.weekly == nil {
		return 0
	}
	return f.weekly[(int(ds.Weekday())+6)%7]
}

func (m *Model) fit(series []models.SeriesPoint, period models.Period) (*fitted, error) {
	points := make(stats.Series, len(series))
	for i, p := range series {
		points[i] = stats.Coordinate{X: float64(i), Y: p.Value}
	}
	line, err := stats.LinearRegression(points)
	if err != nil {
		return nil, fmt.Errorf("forecast: fit trend: %w", err)
	}

	n := len(line)
	f := &fitted{intercept: line[0].Y}
	f.slope = (line[n-1].Y - line[0].Y) / float64(n-1)

	detrended := make([]float64, len(series))
	for i, p := range series {
		detrended[i] = p.Value - line[i].Y
	}

	if period == models.PeriodDay && len(series) >= minSeasonalPoints {
		var sums [7]float64
		var counts [7]int
		for i, p := range series {
			d := (int(p.PeriodStart.Weekday()) + 6) % 7
			sums[d] += detrended[i]
			counts[d]++
		}
		f.weekly = make([]float64, 7)
		for d := range 7 {
			if counts[d] > 0 {
				f.weekly[d] = sums[d] / float64(counts[d])
			}
		}
		// Center so the seasonal component does not shift the trend level.
		if mean, err := stats.Mean(f.weekly); err == nil {
			for d := range f.weekly {
				f.weekly[d] -= mean
			}
		}
	}

	residuals := make([]float64, len(series))
	for i, p := range series {
		residuals[i] = detrended[i] - f.seasonal(p.PeriodStart)
	}
	if len(residuals) > 2 {
		if sd, err := stats.StandardDeviationSample(residuals); err == nil && !math.IsNaN(sd) {
			f.residualSD = sd
		}
	}
	return f, nil
}

// Summarize reduces the last 30 forecast rows to headline figures. The
// confidence bounds are the summed interval edges over the same rows.
func Summarize(points []models.ForecastPoint) models.ForecastSummary {
	var s models.ForecastSummary
	if len(points) == 0 {
		s.TrendDirection = "flat"
		return s
	}
	window := points
	if len(window) > summaryWindow {
		window = window[len(window)-summaryWindow:]
	}

	s.Next30Min = window[0].Point
	s.Next30Max = window[0].Point
	for _, p := range window {
		s.Next30Total += p.Point
		s.Next30Min = min(s.Next30Min, p.Point)
		s.Next30Max = max(s.Next30Max, p.Point)
		s.ConfidenceLower += p.Lower
		s.ConfidenceUpper += p.Upper
	}
	s.Next30Avg = s.Next30Total / float64(len(window))

	if window[len(window)-1].Trend > window[0].Trend {
		s.TrendDirection = "increasing"
	} else {
		s.TrendDirection = "decreasing"
	}
	return s
}
