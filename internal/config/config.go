package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Logger   LoggerConfig   `toml:"log"`
	Security SecurityConfig `toml:"security"`
	LLM      LLMConfig      `toml:"llm"`
}

type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	IdleTimeout     Duration `toml:"idle_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// DataConfig locates the sales and inventory tables and controls how they
// are generated on first run.
type DataConfig struct {
	Backend    string  `toml:"backend"`
	Dir        string  `toml:"dir"`
	Bucket     string  `toml:"bucket"`
	Prefix     string  `toml:"prefix"`
	Region     string  `toml:"region"`
	Endpoint   string  `toml:"endpoint"`
	AccessKey  string  `toml:"access_key"`
	SecretKey  string  `toml:"secret_key"`
	Days       int     `toml:"days"`
	BaseVolume float64 `toml:"base_volume"`
	Seed       int64   `toml:"seed"`
}

type LoggerConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	AddSource bool   `toml:"add_source"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `toml:"rate_limit_enabled"`
	RateLimitRPS    int      `toml:"rate_limit_rps"`
	RateLimitBurst  int      `toml:"rate_limit_burst"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	TrustedProxies  []string `toml:"trusted_proxies"`
}

type LLMConfig struct {
	Provider          string   `toml:"provider"`
	APIKey            string   `toml:"api_key"`
	BaseURL           string   `toml:"base_url"`
	Model             string   `toml:"model"`
	Temperature       *float64 `toml:"temperature"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	CacheSize         int      `toml:"cache_size"`
}

// Duration reads Go duration strings such as "30s" from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{90 * time.Second},
			IdleTimeout:     Duration{60 * time.Second},
			ShutdownTimeout: Duration{30 * time.Second},
		},
		Data: DataConfig{
			Backend:    "fs",
			Dir:        "data",
			Region:     "us-east-1",
			Days:       365,
			BaseVolume: 1000,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		LLM: LLMConfig{
			Provider:          "none",
			Timeout:           Duration{60 * time.Second},
			RequestsPerSecond: 1,
			Burst:             2,
			CacheSize:         128,
		},
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit file path. An empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config %s: %s", path, strict.String())
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnvString("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout.Duration = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout.Duration)
	c.Server.WriteTimeout.Duration = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout.Duration)
	c.Server.IdleTimeout.Duration = getEnvDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout.Duration)
	c.Server.ShutdownTimeout.Duration = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout.Duration)

	c.Data.Backend = getEnvString("DATA_BACKEND", c.Data.Backend)
	c.Data.Dir = getEnvString("DATA_DIR", c.Data.Dir)
	c.Data.Bucket = getEnvString("DATA_S3_BUCKET", c.Data.Bucket)
	c.Data.Prefix = getEnvString("DATA_S3_PREFIX", c.Data.Prefix)
	c.Data.Region = getEnvString("DATA_S3_REGION", c.Data.Region)
	c.Data.Endpoint = getEnvString("DATA_S3_ENDPOINT", c.Data.Endpoint)
	c.Data.AccessKey = getEnvString("DATA_S3_ACCESS_KEY", c.Data.AccessKey)
	c.Data.SecretKey = getEnvString("DATA_S3_SECRET_KEY", c.Data.SecretKey)
	c.Data.Days = getEnvInt("DATA_DAYS", c.Data.Days)
	c.Data.BaseVolume = getEnvFloat("DATA_BASE_VOLUME", c.Data.BaseVolume)
	c.Data.Seed = int64(getEnvInt("DATA_SEED", int(c.Data.Seed)))

	c.Logger.Level = getEnvString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnvString("LOG_FORMAT", c.Logger.Format)
	c.Logger.AddSource = getEnvBool("LOG_ADD_SOURCE", c.Logger.AddSource)

	c.Security.EnableRateLimit = getEnvBool("SECURITY_RATE_LIMIT_ENABLED", c.Security.EnableRateLimit)
	c.Security.RateLimitRPS = getEnvInt("SECURITY_RATE_LIMIT_RPS", c.Security.RateLimitRPS)
	c.Security.RateLimitBurst = getEnvInt("SECURITY_RATE_LIMIT_BURST", c.Security.RateLimitBurst)
	c.Security.AllowedOrigins = getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", c.Security.AllowedOrigins)
	c.Security.TrustedProxies = getEnvStringSlice("SECURITY_TRUSTED_PROXIES", c.Security.TrustedProxies)

	c.LLM.Provider = getEnvString("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.APIKey = getEnvString("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnvString("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnvString("LLM_MODEL", c.LLM.Model)
	c.LLM.Temperature = getEnvFloatPtr("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout.Duration = getEnvDuration("LLM_TIMEOUT", c.LLM.Timeout.Duration)
	c.LLM.RequestsPerSecond = getEnvFloat("LLM_RPS", c.LLM.RequestsPerSecond)
	c.LLM.Burst = getEnvInt("LLM_BURST", c.LLM.Burst)
	c.LLM.CacheSize = getEnvInt("LLM_CACHE_SIZE", c.LLM.CacheSize)

	// Provider-specific key variables are honoured when no generic key is set.
	if c.LLM.APIKey == "" {
		switch strings.ToLower(c.LLM.Provider) {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "openrouter":
			c.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
		case "deepseek":
			c.LLM.APIKey = getEnvString("DEEPSEEK_API_KEY", os.Getenv("OPENROUTER_API_KEY"))
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout.Duration <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout.Duration <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Data.Backend {
	case "fs":
		if c.Data.Dir == "" {
			return fmt.Errorf("data directory cannot be empty")
		}
	case "s3":
		if c.Data.Bucket == "" {
			return fmt.Errorf("s3 backend requires a bucket")
		}
	default:
		return fmt.Errorf("invalid data backend %q, must be one of: fs, s3", c.Data.Backend)
	}

	if c.Data.Days <= 0 {
		return fmt.Errorf("data days must be positive")
	}

	if c.Data.BaseVolume <= 0 {
		return fmt.Errorf("data base volume must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	validProviders := []string{"none", "openai", "deepseek", "openrouter", "ollama"}
	if !slices.Contains(validProviders, strings.ToLower(c.LLM.Provider)) {
		return fmt.Errorf("invalid llm provider %q, must be one of: %s", c.LLM.Provider, strings.Join(validProviders, ", "))
	}

	if c.LLM.RequestsPerSecond < 0 || c.LLM.CacheSize < 0 {
		return fmt.Errorf("llm rate and cache size cannot be negative")
	}

	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm temperature %v out of range [0, 2]", *t)
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvFloatPtr(key string, defaultValue *float64) *float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return &floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
