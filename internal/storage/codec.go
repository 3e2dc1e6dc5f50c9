package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ceo-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
	dateLayout = "2006-01-02"
)

var (
	ErrEmptyTable    = errors.New("table has no data rows")
	ErrMissingColumn = errors.New("missing required column")
)

var TransactionColumns = []string{
	"date", "product", "category", "quantity", "price", "cost", "profit",
	"revenue", "total_cost", "total_profit", "marketing_channel",
	"customer_id", "customer_name", "customer_email", "transaction_id",
}

var InventoryColumns = []string{
	"product", "category", "current_stock", "reorder_point", "max_stock",
	"avg_daily_sales", "days_of_inventory", "unit_cost", "unit_price",
	"last_restocked", "supplier",
}

// Identity columns that older exports may lack.
var optionalColumns = map[string]bool{
	"customer_name":  true,
	"customer_email": true,
}

var dateLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate accepts ISO 8601 dates and date-times and truncates to the
// calendar day in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func WriteTransactions(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionColumns); err != nil {
		return err
	}
	for _, tx := range txs {
		record := []string{
			tx.Date.Format(dateLayout),
			tx.Product,
			tx.Category,
			strconv.Itoa(tx.Quantity),
			formatFloat(tx.Price),
			formatFloat(tx.Cost),
			formatFloat(tx.Profit),
			formatFloat(tx.Revenue),
			formatFloat(tx.TotalCost),
			formatFloat(tx.TotalProfit),
			tx.MarketingChannel,
			tx.CustomerID,
			tx.CustomerName,
			tx.CustomerEmail,
			tx.TransactionID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteInventory(w io.Writer, inv []models.InventoryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(InventoryColumns); err != nil {
		return err
	}
	for _, r := range inv {
		record := []string{
			r.Product,
			r.Category,
			strconv.Itoa(r.CurrentStock),
			strconv.Itoa(r.ReorderPoint),
			strconv.Itoa(r.MaxStock),
			strconv.Itoa(r.AvgDailySales),
			formatFloat(r.DaysOfInventory),
			formatFloat(r.UnitCost),
			formatFloat(r.UnitPrice),
			r.LastRestocked.Format(dateLayout),
			r.Supplier,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTransactions parses a sales table. Any malformed row fails the whole
// load; there is no partial recovery.
func ReadTransactions(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	cols, rows, err := readTable(r, TransactionColumns)
	if err != nil {
		return nil, err
	}

	out := make([]models.Transaction, len(rows))
	err = parseRows(ctx, rows, func(i int, rec []string) error {
		row := rowReader{cols: cols, rec: rec}
		tx := models.Transaction{
			Product:          row.text("product"),
			Category:         row.text("category"),
			MarketingChannel: row.text("marketing_channel"),
			CustomerID:       row.text("customer_id"),
			CustomerName:     row.text("customer_name"),
			CustomerEmail:    row.text("customer_email"),
			TransactionID:    row.text("transaction_id"),
		}
		tx.Date = row.day("date")
		tx.Quantity = row.integer("quantity")
		tx.Price = row.number("price")
		tx.Cost = row.number("cost")
		tx.Profit = row.number("profit")
		tx.Revenue = row.number("revenue")
		tx.TotalCost = row.number("total_cost")
		tx.TotalProfit = row.number("total_profit")
		if row.err != nil {
			return row.err
		}
		out[i] = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ReadInventory(ctx context.Context, r io.Reader) ([]models.InventoryRecord, error) {
	cols, rows, err := readTable(r, InventoryColumns)
	if err != nil {
		return nil, err
	}

	out := make([]models.InventoryRecord, len(rows))
	err = parseRows(ctx, rows, func(i int, rec []string) error {
		row := rowReader{cols: cols, rec: rec}
		ir := models.InventoryRecord{
			Product:  row.text("product"),
			Category: row.text("category"),
			Supplier: row.text("supplier"),
		}
		ir.CurrentStock = row.integer("current_stock")
		ir.ReorderPoint = row.integer("reorder_point")
		ir.MaxStock = row.integer("max_stock")
		ir.AvgDailySales = row.integer("avg_daily_sales")
		ir.DaysOfInventory = row.number("days_of_inventory")
		ir.UnitCost = row.number("unit_cost")
		ir.UnitPrice = row.number("unit_price")
		ir.LastRestocked = row.day("last_restocked")
		if row.err != nil {
			return row.err
		}
		out[i] = ir
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readTable(r io.Reader, required []string) (map[string]int, [][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyTable
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok && !optionalColumns[name] {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyTable
	}
	return cols, rows, nil
}

// parseRows fans rows out to a bounded worker pool one batch at a time.
// Results are written by index so file order is preserved.
func parseRows(ctx context.Context, rows [][]string, parse func(i int, rec []string) error) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxWorkers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := parse(i, rows[i]); err != nil {
					// line 1 is the header
					return fmt.Errorf("line %d: %w", i+2, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// rowReader records the first field error so callers can check once.
type rowReader struct {
	cols map[string]int
	rec  []string
	err  error
}

func (r *rowReader) text(name string) string {
	idx, ok := r.cols[name]
	if !ok || idx >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[idx])
}

func (r *rowReader) integer(name string) int {
	if r.err != nil {
		return 0
	}
	v, err := strconv.Atoi(r.text(name))
	if err != nil {
		r.err = fmt.Errorf("column %s: %w", name, err)
	}
	return v
}

func (r *rowReader) number(name string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(r.text(name), 64)
	if err != nil {
		r.err = fmt.Errorf("column %s: %w", name, err)
	}
	return v
}

func (r *rowReader) day(name string) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v, err := ParseDate(r.text(name))
	if err != nil {
		r.err = fmt.Errorf("column %s: %w", name, err)
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
