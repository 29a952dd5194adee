package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string

	// Posting
	BaseCurrency             string
	BalanceTolerance         decimal.Decimal
	RateLookupTimeout        time.Duration
	CustomerAdvanceAccountID string
	SupplierAdvanceAccountID string
	RoundingAccountID        string

	// In-memory directory used when no database is configured
	ChartFixturePath string

	// HTTP adapter
	RateLimit          string
	CORSAllowedOrigins []string
}

// UsesDatabase reports whether a PostgreSQL URL was configured.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("BASE_CURRENCY", "MYR")
	viper.SetDefault("BALANCE_TOLERANCE", "0.01")
	viper.SetDefault("RATE_LOOKUP_TIMEOUT", "2s")
	viper.SetDefault("CUSTOMER_ADVANCE_ACCOUNT_ID", "")
	viper.SetDefault("SUPPLIER_ADVANCE_ACCOUNT_ID", "")
	viper.SetDefault("ROUNDING_ACCOUNT_ID", "")
	viper.SetDefault("CHART_FIXTURE_PATH", "fixtures/chart_of_accounts.yaml")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	// Values from .env can be overridden by actual environment variables.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Using the in-memory chart of accounts.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.BaseCurrency = viper.GetString("BASE_CURRENCY")
	if len(cfg.BaseCurrency) != 3 {
		log.Printf("Warning: Invalid value for BASE_CURRENCY ('%s'). Defaulting to MYR.\n", cfg.BaseCurrency)
		cfg.BaseCurrency = "MYR"
	}

	toleranceStr := viper.GetString("BALANCE_TOLERANCE")
	tolerance, err := decimal.NewFromString(toleranceStr)
	if err != nil || tolerance.IsNegative() {
		tolerance = decimal.New(1, -2)
		log.Printf("Warning: Invalid value for BALANCE_TOLERANCE ('%s'). Defaulting to %s.\n", toleranceStr, tolerance.String())
	}
	cfg.BalanceTolerance = tolerance

	timeoutStr := viper.GetString("RATE_LOOKUP_TIMEOUT")
	rateLookupTimeout, err := time.ParseDuration(timeoutStr)
	if err != nil || rateLookupTimeout <= 0 {
		rateLookupTimeout = 2 * time.Second
		log.Printf("Warning: Invalid value for RATE_LOOKUP_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, rateLookupTimeout.String())
	}
	cfg.RateLookupTimeout = rateLookupTimeout

	cfg.CustomerAdvanceAccountID = viper.GetString("CUSTOMER_ADVANCE_ACCOUNT_ID")
	cfg.SupplierAdvanceAccountID = viper.GetString("SUPPLIER_ADVANCE_ACCOUNT_ID")
	if cfg.CustomerAdvanceAccountID == "" || cfg.SupplierAdvanceAccountID == "" {
		log.Println("Warning: advance accounts not fully configured. Overpayments must name an advance account explicitly.")
	}
	cfg.RoundingAccountID = viper.GetString("ROUNDING_ACCOUNT_ID")

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")
	cfg.ChartFixturePath = viper.GetString("CHART_FIXTURE_PATH")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}
