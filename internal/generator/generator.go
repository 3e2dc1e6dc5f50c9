// Package generator produces synthetic sales and inventory tables with
// seasonal and growth structure.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ceo-dashboard/internal/catalog"
	"ceo-dashboard/internal/models"
)

const (
	DefaultDays       = 365
	DefaultBaseVolume = 1000.0

	volumeNoiseStdDev   = 200.0
	avgTransactionValue = 50.0
	priceJitter         = 0.10
	dailyGrowth         = 0.0005
	weekendFactor       = 1.1
)

var monthFactors = map[time.Month]float64{
	time.December: 1.8,
	time.January:  0.7,
	time.November: 1.5,
	time.July:     1.2,
}

type Generator struct {
	rng   *rand.Rand
	faker *gofakeit.Faker
	now   func() time.Time
}

// New returns a generator seeded with seed. A zero seed uses the current
// time. A nil now defaults to time.Now.
func New(seed int64, now func() time.Time) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(uint64(seed)),
		now:   now,
	}
}

// SeasonalFactor is the combined month and weekend multiplier for a day.
func SeasonalFactor(day time.Time) float64 {
	factor := 1.0
	if f, ok := monthFactors[day.Month()]; ok {
		factor *= f
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		factor *= weekendFactor
	}
	return factor
}

// TransactionCount converts a day's target volume into a number of orders.
func TransactionCount(targetVolume float64) int {
	return max(1, int(math.Round(targetVolume/avgTransactionValue)))
}

// GenerateTransactions returns one day of orders for every calendar day in
// [today-days, today], oldest first.
func (g *Generator) GenerateTransactions(days int, baseDailyVolume float64) []models.Transaction {
	today := truncateDay(g.now())
	start := today.AddDate(0, 0, -days)

	var out []models.Transaction
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		target := baseDailyVolume + g.rng.NormFloat64()*volumeNoiseStdDev
		target *= SeasonalFactor(day)

		daysFromStart := int(day.Sub(start).Hours() / 24)
		target *= 1 + float64(daysFromStart)*dailyGrowth

		n := TransactionCount(target)
		for range n {
			out = append(out, g.transaction(day))
		}
	}
	return out
}

func (g *Generator) transaction(day time.Time) models.Transaction {
	product := catalog.Products[g.rng.Intn(len(catalog.Products))]
	quantity := 1 + g.rng.Intn(3)

	base := g.uniform(product.MinPrice, product.MaxPrice)
	raw := base + g.rng.NormFloat64()*base*priceJitter
	if raw < 0.01 {
		raw = base
	}
	price := decimal.NewFromFloat(raw).Round(2)
	cost := g.unitCost(price)
	qty := decimal.NewFromInt(int64(quantity))
	revenue := price.Mul(qty)
	totalCost := cost.Mul(qty)

	return models.Transaction{
		Date:             day,
		Product:          product.Name,
		Category:         product.Category,
		Quantity:         quantity,
		Price:            price.InexactFloat64(),
		Cost:             cost.InexactFloat64(),
		Profit:           price.Sub(cost).InexactFloat64(),
		Revenue:          revenue.InexactFloat64(),
		TotalCost:        totalCost.InexactFloat64(),
		TotalProfit:      revenue.Sub(totalCost).InexactFloat64(),
		MarketingChannel: g.channel(),
		CustomerID:       g.id(),
		CustomerName:     g.faker.Name(),
		CustomerEmail:    g.faker.Email(),
		TransactionID:    g.id(),
	}
}

// GenerateInventory returns one stock record per catalog product.
func (g *Generator) GenerateInventory() []models.InventoryRecord {
	today := truncateDay(g.now())
	out := make([]models.InventoryRecord, 0, len(catalog.Products))

	for _, p := range catalog.Products {
		base := g.uniform(p.MinPrice, p.MaxPrice)
		current := 10 + g.rng.Intn(191)
		avgDaily := 2 + g.rng.Intn(7)
		days := decimal.NewFromFloat(float64(current) / float64(avgDaily)).Round(1)

		out = append(out, models.InventoryRecord{
			Product:         p.Name,
			Category:        p.Category,
			CurrentStock:    current,
			ReorderPoint:    max(5, int(float64(current)*0.2)),
			MaxStock:        current + 50 + g.rng.Intn(51),
			AvgDailySales:   avgDaily,
			DaysOfInventory: days.InexactFloat64(),
			UnitCost:        decimal.NewFromFloat(base * g.uniform(0.4, 0.7)).Round(2).InexactFloat64(),
			UnitPrice:       decimal.NewFromFloat(base).Round(2).InexactFloat64(),
			LastRestocked:   today.AddDate(0, 0, -g.rng.Intn(31)),
			Supplier:        g.faker.Company(),
		})
	}
	return out
}

func (g *Generator) channel() string {
	r := g.rng.Float64()
	var acc float64
	for _, c := range catalog.Channels {
		acc += c.Weight
		if r < acc {
			return c.Name
		}
	}
	return catalog.Channels[len(catalog.Channels)-1].Name
}

func (g *Generator) id() string {
	return uuid.Must(uuid.NewRandomFromReader(g.rng)).String()
}

// unitCost draws a whole-cent cost strictly inside 40%..70% of price.
func (g *Generator) unitCost(price decimal.Decimal) decimal.Decimal {
	cents := price.Shift(2).IntPart()
	lo := cents*4/10 + 1
	hi := (cents*7+9)/10 - 1
	if hi < lo {
		hi = lo
	}
	return decimal.New(lo+g.rng.Int63n(hi-lo+1), -2)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
