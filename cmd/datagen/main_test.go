package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ceo-dashboard/internal/config"
	"ceo-dashboard/internal/storage"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-days", "30", "-seed", "9", "-dir", "/tmp/x"})
	if err != nil {
		t.Fatalf("parseFlags() error: %v", err)
	}

	cfg := config.Default()
	o.apply(cfg)
	if cfg.Data.Days != 30 || cfg.Data.Seed != 9 || cfg.Data.Dir != "/tmp/x" || cfg.Data.BaseVolume != 1000 {
		t.Errorf("unexpected data config %+v", cfg.Data)
	}

	if _, err := parseFlags([]string{"-days", "-1"}); err == nil {
		t.Error("expected error for negative days")
	}
}

func TestRun_WritesTables(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	if err := run(context.Background(), []string{"-days", "10", "-base-volume", "100", "-seed", "3", "-dir", dir}); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	for _, key := range []string{storage.SalesKey, storage.InventoryKey} {
		info, err := os.Stat(filepath.Join(dir, key))
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", key, err)
		}
	}
}
