package erp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds the front end configuration
type Config struct {
	APIURL   string `validate:"required,url"`
	Mode     string `validate:"oneof=development production"`
	Brand    string // shown in the TUI title (default: "ERP Front")
	Locale   string `validate:"required"`
	Currency string
	StateDB  string `validate:"required"` // sqlite file for persisted UI state
	LogFile  string `validate:"required"`
	Source   string // config file that was read, empty when env only
}

var validate = validator.New()

// configPaths lists where .erp-config is looked up, first match wins
func configPaths() []string {
	return []string{
		".erp-config",
		"../.erp-config",
		filepath.Join(filepath.Dir(os.Args[0]), ".erp-config"),
		filepath.Join(filepath.Dir(os.Args[0]), "..", ".erp-config"),
	}
}

func defaultConfig() *Config {
	return &Config{
		Mode:     ModeDevelopment,
		Brand:    "ERP Front",
		Locale:   "en-US",
		Currency: "$",
		StateDB:  "erp-front.db",
		LogFile:  "erp-front.log",
	}
}

// LoadConfig reads .erp-config, then .env, then the process environment.
// Later sources override earlier ones.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	for _, p := range configPaths() {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		values, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", p, err)
		}
		config.apply(values)
		config.Source = p
		break
	}

	// .env is optional; Load never overrides variables already set
	_ = godotenv.Load()
	config.apply(environ())

	if err := config.Validate(); err != nil {
		if config.Source == "" && config.APIURL == "" {
			return nil, fmt.Errorf("config file not found and API_URL not set. Copy .erp-config.example to .erp-config")
		}
		return nil, err
	}
	return config, nil
}

func environ() map[string]string {
	keys := []string{"API_URL", "MODE", "ERP_BRAND", "ERP_LOCALE", "ERP_CURRENCY", "ERP_STATE_DB", "ERP_LOG_FILE"}
	values := make(map[string]string)
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			values[k] = v
		}
	}
	return values
}

func (c *Config) apply(values map[string]string) {
	for key, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case "API_URL":
			c.APIURL = strings.TrimRight(value, "/")
		case "MODE":
			c.Mode = strings.ToLower(value)
		case "ERP_BRAND":
			c.Brand = value
		case "ERP_LOCALE":
			c.Locale = value
		case "ERP_CURRENCY":
			c.Currency = value
		case "ERP_STATE_DB":
			c.StateDB = value
		case "ERP_LOG_FILE":
			c.LogFile = value
		}
	}
}

// Validate checks required keys and reports each violation as "field: tag"
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	violations := ProcessValidationErrors(verrs)
	fields := make([]string, 0, len(violations))
	for field := range violations {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+violations[field])
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, ", "))
}

// ProcessValidationErrors flattens validator errors into field -> tag
func ProcessValidationErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = e.Tag()
	}
	return out
}

// Development reports whether debug behaviour is on
func (c *Config) Development() bool {
	return c.Mode != ModeProduction
}
