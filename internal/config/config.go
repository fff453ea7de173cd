// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"billing-service/internal/core"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration. Missing credentials are not an
// error here; the features that need them report core.ErrNotConfigured.
type Config struct {
	DatabaseURL         string        `mapstructure:"database_url"`
	DatabaseMaxConns    int32         `mapstructure:"database_max_conns"`
	DatabaseAutoMigrate bool          `mapstructure:"database_auto_migrate"`
	RedisURL            string        `mapstructure:"redis_url"`
	GeminiAPIKey        string        `mapstructure:"gemini_api_key"`
	GeminiModel         string        `mapstructure:"gemini_model"`
	OpenAIAPIKey        string        `mapstructure:"openai_api_key"`
	OpenAIModel         string        `mapstructure:"openai_model"`
	AITimeout           time.Duration `mapstructure:"ai_timeout"`
	ServerPort          int           `mapstructure:"server_port"`
	AllowedOrigins      string        `mapstructure:"allowed_origins"`
	JWTSecret           string        `mapstructure:"jwt_secret"`
	LogLevel            string        `mapstructure:"log_level"`
	LogFormat           string        `mapstructure:"log_format"`
	LogOutput           string        `mapstructure:"log_output"`
	DefaultCurrency     string        `mapstructure:"default_currency"`
	DefaultTaxRateText  string        `mapstructure:"default_tax_rate"`
	InvoicePrefix       string        `mapstructure:"invoice_prefix"`
	QuotePrefix         string        `mapstructure:"quote_prefix"`
	ExpensePrefix       string        `mapstructure:"expense_prefix"`

	// DefaultTaxRate is DefaultTaxRateText parsed by Validate.
	DefaultTaxRate decimal.Decimal `mapstructure:"-"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("database_max_conns", 10)
	v.SetDefault("database_auto_migrate", false)
	v.SetDefault("redis_url", "")

	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("ai_timeout", 30*time.Second)

	v.SetDefault("server_port", 8080)
	v.SetDefault("allowed_origins", "http://localhost:3000")
	v.SetDefault("jwt_secret", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_output", "stdout")

	v.SetDefault("default_currency", "USD")
	v.SetDefault("default_tax_rate", "7")
	v.SetDefault("invoice_prefix", core.DefaultInvoicePrefix)
	v.SetDefault("quote_prefix", core.DefaultQuotePrefix)
	v.SetDefault("expense_prefix", core.DefaultExpensePrefix)
}

// Validate normalizes and checks the loaded values.
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.DatabaseMaxConns < 1 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be at least 1")
	}

	c.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.DefaultCurrency))
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency)
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(c.DefaultTaxRateText))
	if err != nil {
		return fmt.Errorf("DEFAULT_TAX_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("DEFAULT_TAX_RATE must be between 0 and 100, got %s", rate)
	}
	c.DefaultTaxRate = rate

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}

	for name, p := range map[string]*string{
		"INVOICE_PREFIX": &c.InvoicePrefix,
		"QUOTE_PREFIX":   &c.QuotePrefix,
		"EXPENSE_PREFIX": &c.ExpensePrefix,
	} {
		*p = strings.ToUpper(strings.TrimSpace(*p))
		if *p == "" || strings.ContainsAny(*p, "- ") {
			return fmt.Errorf("%s must be a non-empty code without dashes or spaces", name)
		}
	}
	return nil
}

// Prefix returns the configured sequence prefix for t.
func (c *Config) Prefix(t core.DocumentType) string {
	switch t {
	case core.TypeQuote:
		return c.QuotePrefix
	case core.TypeExpense:
		return c.ExpensePrefix
	}
	return c.InvoicePrefix
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
