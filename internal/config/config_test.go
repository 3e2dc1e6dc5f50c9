package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.Data.Backend != "fs" || cfg.Data.Days != 365 || cfg.Data.BaseVolume != 1000 {
		t.Errorf("unexpected data defaults: %+v", cfg.Data)
	}
	if cfg.LLM.Provider != "none" {
		t.Errorf("LLM provider should default to none, got %q", cfg.LLM.Provider)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 9090
write_timeout = "2m"

[data]
dir = "/srv/tables"
days = 90
seed = 42

[llm]
provider = "ollama"
model = "mistral"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("LLM_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("environment should override the file, got port %d", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout.Duration != 2*time.Minute {
		t.Errorf("WriteTimeout = %v, want 2m", cfg.Server.WriteTimeout)
	}
	if cfg.Server.ReadTimeout.Duration != 10*time.Second {
		t.Errorf("keys absent from the file should keep defaults, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Data.Dir != "/srv/tables" || cfg.Data.Days != 90 || cfg.Data.Seed != 42 {
		t.Errorf("unexpected data section: %+v", cfg.Data)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "mistral" {
		t.Errorf("unexpected llm section: %+v", cfg.LLM)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.toml")
	os.WriteFile(unknown, []byte("[server]\nprot = 1\n"), 0644)
	badDuration := filepath.Join(dir, "duration.toml")
	os.WriteFile(badDuration, []byte("[server]\nread_timeout = \"soon\"\n"), 0644)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "nope.toml")},
		{name: "unknown key", path: unknown},
		{name: "bad duration", path: badDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", tt.path)
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFrom_IgnoresConfigFileEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[data]\ndays = 30\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Data.Days != 30 {
		t.Errorf("Days = %d, want 30", cfg.Data.Days)
	}
}

func TestLoad_Temperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[llm]\ntemperature = 0.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LLM_TEMPERATURE", "")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.LLM.Temperature == nil || *cfg.LLM.Temperature != 0 {
		t.Errorf("explicit zero temperature lost: %v", cfg.LLM.Temperature)
	}

	t.Setenv("LLM_TEMPERATURE", "1.1")
	cfg, err = LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.LLM.Temperature == nil || *cfg.LLM.Temperature != 1.1 {
		t.Errorf("environment should override temperature, got %v", cfg.LLM.Temperature)
	}

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_TEMPERATURE", "")
	if cfg, _ := Load(); cfg.LLM.Temperature != nil {
		t.Errorf("temperature should be unset by default, got %v", *cfg.LLM.Temperature)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "port"},
		{name: "backend", mutate: func(c *Config) { c.Data.Backend = "ftp" }, wantErr: "backend"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Data.Backend = "s3" }, wantErr: "bucket"},
		{name: "days", mutate: func(c *Config) { c.Data.Days = 0 }, wantErr: "days"},
		{name: "log level", mutate: func(c *Config) { c.Logger.Level = "loud" }, wantErr: "log level"},
		{name: "log format", mutate: func(c *Config) { c.Logger.Format = "xml" }, wantErr: "log format"},
		{name: "rate limit", mutate: func(c *Config) { c.Security.RateLimitRPS = 0 }, wantErr: "RPS"},
		{name: "provider", mutate: func(c *Config) { c.LLM.Provider = "bard" }, wantErr: "provider"},
		{name: "temperature", mutate: func(c *Config) { v := 3.0; c.LLM.Temperature = &v }, wantErr: "temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnv_ProviderKeyFallback(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg := Default()
	cfg.LLM.Provider = "openai"
	cfg.applyEnv()
	if cfg.LLM.APIKey != "sk-openai" {
		t.Errorf("APIKey = %q, want the OPENAI_API_KEY value", cfg.LLM.APIKey)
	}

	t.Setenv("LLM_API_KEY", "generic")
	cfg = Default()
	cfg.LLM.Provider = "openai"
	cfg.applyEnv()
	if cfg.LLM.APIKey != "generic" {
		t.Errorf("LLM_API_KEY should win, got %q", cfg.LLM.APIKey)
	}
}
