package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"ceo-dashboard/internal/models"
)

const (
	SalesKey     = "sales_data.csv"
	InventoryKey = "inventory_data.csv"
)

// Tables is the immutable pair every analytic view is derived from.
type Tables struct {
	Transactions []models.Transaction
	Inventory    []models.InventoryRecord
}

type TableGenerator interface {
	GenerateTransactions(days int, baseDailyVolume float64) []models.Transaction
	GenerateInventory() []models.InventoryRecord
}

type GenerateOptions struct {
	Days       int
	BaseVolume float64
}

type Store struct {
	backend Backend
	logger  *slog.Logger
}

func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// LoadOrGenerate loads each table if it already exists and otherwise
// generates and persists it. A table that exists but fails to parse is an
// error; it is never silently regenerated.
func (s *Store) LoadOrGenerate(ctx context.Context, gen TableGenerator, opts GenerateOptions) (*Tables, error) {
	tables := &Tables{}

	exists, err := s.backend.Exists(ctx, SalesKey)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", SalesKey, err)
	}
	if exists {
		s.logger.Info("loading existing sales data", "backend", s.backend.Name(), "key", SalesKey)
		if tables.Transactions, err = s.LoadTransactions(ctx); err != nil {
			return nil, err
		}
	} else {
		s.logger.Info("generating sales data", "days", opts.Days, "base_volume", opts.BaseVolume)
		tables.Transactions = gen.GenerateTransactions(opts.Days, opts.BaseVolume)
		if err := s.SaveTransactions(ctx, tables.Transactions); err != nil {
			return nil, err
		}
	}

	exists, err = s.backend.Exists(ctx, InventoryKey)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", InventoryKey, err)
	}
	if exists {
		s.logger.Info("loading existing inventory data", "backend", s.backend.Name(), "key", InventoryKey)
		if tables.Inventory, err = s.LoadInventory(ctx); err != nil {
			return nil, err
		}
	} else {
		s.logger.Info("generating inventory data")
		tables.Inventory = gen.GenerateInventory()
		if err := s.SaveInventory(ctx, tables.Inventory); err != nil {
			return nil, err
		}
	}

	return tables, nil
}

// Regenerate overwrites both tables wholesale.
func (s *Store) Regenerate(ctx context.Context, gen TableGenerator, opts GenerateOptions) (*Tables, error) {
	tables := &Tables{
		Transactions: gen.GenerateTransactions(opts.Days, opts.BaseVolume),
		Inventory:    gen.GenerateInventory(),
	}
	if err := s.SaveTransactions(ctx, tables.Transactions); err != nil {
		return nil, err
	}
	if err := s.SaveInventory(ctx, tables.Inventory); err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *Store) LoadTransactions(ctx context.Context) ([]models.Transaction, error) {
	start := time.Now()
	rc, err := s.backend.Open(ctx, SalesKey)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", SalesKey, err)
	}
	defer rc.Close()

	txs, err := ReadTransactions(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", SalesKey, err)
	}
	s.logger.Info("sales data loaded", "records", len(txs), "duration", time.Since(start))
	return txs, nil
}

func (s *Store) LoadInventory(ctx context.Context) ([]models.InventoryRecord, error) {
	rc, err := s.backend.Open(ctx, InventoryKey)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", InventoryKey, err)
	}
	defer rc.Close()

	inv, err := ReadInventory(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", InventoryKey, err)
	}
	return inv, nil
}

func (s *Store) SaveTransactions(ctx context.Context, txs []models.Transaction) error {
	var buf bytes.Buffer
	if err := WriteTransactions(&buf, txs); err != nil {
		return fmt.Errorf("encode %s: %w", SalesKey, err)
	}
	if err := s.backend.Put(ctx, SalesKey, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", SalesKey, err)
	}
	s.logger.Info("sales data saved", "records", len(txs), "backend", s.backend.Name())
	return nil
}

func (s *Store) SaveInventory(ctx context.Context, inv []models.InventoryRecord) error {
	var buf bytes.Buffer
	if err := WriteInventory(&buf, inv); err != nil {
		return fmt.Errorf("encode %s: %w", InventoryKey, err)
	}
	if err := s.backend.Put(ctx, InventoryKey, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", InventoryKey, err)
	}
	s.logger.Info("inventory data saved", "records", len(inv), "backend", s.backend.Name())
	return nil
}
