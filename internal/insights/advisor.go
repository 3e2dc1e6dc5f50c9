// Package insights turns computed dashboard figures into prompts and asks
// a text generator for narrative commentary. Generator failures are
// reported inside the Narrative and never affect the figures themselves.
package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ceo-dashboard/internal/llm"
	"ceo-dashboard/internal/models"
	"ceo-dashboard/internal/services"
)

type Kind string

const (
	KindKPI              Kind = "kpi"
	KindForecast         Kind = "forecast"
	KindForecastOverview Kind = "forecast-overview"
	KindProducts         Kind = "products"
	KindMarketing        Kind = "marketing"
	KindQuarterly        Kind = "quarterly"
	KindQuestion         Kind = "question"
)

// Kinds lists the narratives GenerateAll produces, in display order.
var Kinds = []Kind{KindKPI, KindForecast, KindProducts, KindMarketing, KindQuarterly}

var (
	ErrUnknownKind   = errors.New("unknown insight kind")
	ErrEmptyQuestion = errors.New("question must not be empty")
)

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindKPI, KindForecast, KindForecastOverview, KindProducts, KindMarketing, KindQuarterly:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

type Narrative struct {
	Kind        Kind      `json:"kind"`
	Text        string    `json:"text"`
	Provider    string    `json:"provider"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (n Narrative) Failed() bool {
	return n.Error != ""
}

// Source is the slice of the analytics service the advisor reads.
type Source interface {
	KPIs(f services.Filter) models.KPISnapshot
	Forecast(ctx context.Context, f services.Filter, metric models.Metric, period models.Period, horizon int) (*models.Forecast, error)
	Products(f services.Filter) []models.GroupPerformance
	Channels(f services.Filter) []models.GroupPerformance
	Quarters(f services.Filter) []models.QuarterPerformance
	Overview(f services.Filter) models.DataOverview
}

type Advisor struct {
	source  Source
	gen     llm.TextGenerator
	logger  *slog.Logger
	timeout time.Duration
}

func NewAdvisor(source Source, gen llm.TextGenerator, logger *slog.Logger, timeout time.Duration) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	if gen == nil {
		gen = llm.Disabled{}
	}
	return &Advisor{source: source, gen: gen, logger: logger, timeout: timeout}
}

func (a *Advisor) Provider() string {
	return string(llm.Name(a.gen))
}

// Generate builds the prompt for kind from the current data and narrates it.
// Only an unknown kind is returned as an error.
func (a *Advisor) Generate(ctx context.Context, kind Kind, f services.Filter) (Narrative, error) {
	prompt, err := a.prompt(ctx, kind, f)
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			return Narrative{}, err
		}
		return a.failed(kind, err), nil
	}
	return a.Narrate(ctx, kind, prompt), nil
}

// Ask answers a free-form question about the filtered data.
func (a *Advisor) Ask(ctx context.Context, question string, f services.Filter) (Narrative, error) {
	if strings.TrimSpace(question) == "" {
		return Narrative{}, ErrEmptyQuestion
	}
	kpis := a.source.KPIs(f)
	return a.Narrate(ctx, KindQuestion, QuestionPrompt(question, a.source.Overview(f), &kpis)), nil
}

// GenerateAll produces every narrative in Kinds concurrently. Results are in
// Kinds order; individual failures are recorded per narrative.
func (a *Advisor) GenerateAll(ctx context.Context, f services.Filter) []Narrative {
	out := make([]Narrative, len(Kinds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i, kind := range Kinds {
		g.Go(func() error {
			n, err := a.Generate(gctx, kind, f)
			if err != nil {
				n = a.failed(kind, err)
			}
			out[i] = n
			return nil
		})
	}
	// Failures are recorded in out; the closures never return an error.
	g.Wait()
	return out
}

// Narrate sends prompt to the generator. Errors and panics are captured in
// the returned Narrative.
func (a *Advisor) Narrate(ctx context.Context, kind Kind, p Prompt) (n Narrative) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("text generator panic", "kind", kind, "panic", r)
			n = a.failed(kind, fmt.Errorf("text generator panic: %v", r))
		}
	}()

	start := time.Now()
	text, err := a.gen.GenerateText(ctx, p.User, p.System)
	if err != nil {
		a.logger.Warn("insight generation failed", "kind", kind, "provider", a.Provider(), "error", err)
		return a.failed(kind, err)
	}
	a.logger.Info("insight generated", "kind", kind, "provider", a.Provider(), "duration", time.Since(start))
	return Narrative{Kind: kind, Text: text, Provider: a.Provider(), GeneratedAt: time.Now()}
}

func (a *Advisor) failed(kind Kind, err error) Narrative {
	return Narrative{Kind: kind, Provider: a.Provider(), Error: err.Error(), GeneratedAt: time.Now()}
}

func (a *Advisor) prompt(ctx context.Context, kind Kind, f services.Filter) (Prompt, error) {
	switch kind {
	case KindKPI:
		return KPIPrompt(a.source.KPIs(f)), nil
	case KindForecast:
		fc, err := a.source.Forecast(ctx, f, models.MetricRevenue, models.PeriodDay, 0)
		if err != nil {
			return Prompt{}, fmt.Errorf("forecast: %w", err)
		}
		return ForecastPrompt(fc.Metric, fc.Summary), nil
	case KindForecastOverview:
		summaries := make(map[models.Metric]models.ForecastSummary)
		for _, m := range []models.Metric{models.MetricRevenue, models.MetricProfit, models.MetricTransactions} {
			fc, err := a.source.Forecast(ctx, f, m, models.PeriodDay, 0)
			if err != nil {
				a.logger.Warn("skipping forecast metric", "metric", m, "error", err)
				continue
			}
			summaries[m] = fc.Summary
		}
		if len(summaries) == 0 {
			return Prompt{}, errors.New("no forecast could be produced")
		}
		return ForecastOverviewPrompt(summaries), nil
	case KindProducts:
		return ProductPrompt(a.source.Products(f)), nil
	case KindMarketing:
		return MarketingPrompt(a.source.Channels(f)), nil
	case KindQuarterly:
		return QuarterlyPrompt(a.source.Quarters(f), a.source.KPIs(f)), nil
	default:
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
