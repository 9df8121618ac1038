// Package config loads and validates the service configuration from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment is the deployment environment named by ENV
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// DataSource selects the reference store backend
type DataSource string

const (
	SourceFiles    DataSource = "files"
	SourcePostgres DataSource = "postgres"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	CORSOrigins       []string
	RateLimitRate     float64 // Tokens refilled per second for each client
	RateLimitCapacity int64

	DataSource  DataSource
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	DrugsSource        string // File path or http(s) URL
	CompositionsSource string
	InteractionsSource string
	RefreshTimes       string // gocron At() syntax, e.g. "06:00;18:00"

	MaxDrugCodes          int
	MaxIngredientNames    int
	PairLookupConcurrency int
	ResolutionTimeout     time.Duration
}

// LoadDotEnv loads a .env file from the working directory when one exists
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               Environment(strings.ToLower(getEnvWithDefault("ENV", string(EnvDevelopment)))),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB
		CORSOrigins:       splitList(getEnvWithDefault("CORS_ORIGINS", "*")),
		RateLimitRate:     getFloatEnvWithDefault("RATE_LIMIT_RATE", 3),
		RateLimitCapacity: getInt64EnvWithDefault("RATE_LIMIT_CAPACITY", 1000),

		DataSource:  DataSource(strings.ToLower(getEnvWithDefault("DATA_SOURCE", string(SourceFiles)))),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  int32(getIntEnvWithDefault("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getIntEnvWithDefault("DB_MIN_CONNS", 1)),

		DrugsSource:        getEnvWithDefault("DRUGS_SOURCE", "data/CIS_bdpm.txt"),
		CompositionsSource: getEnvWithDefault("COMPOSITIONS_SOURCE", "data/CIS_COMPO_bdpm.txt"),
		InteractionsSource: getEnvWithDefault("INTERACTIONS_SOURCE", "data/interactions.yaml"),
		RefreshTimes:       getEnvWithDefault("REFRESH_TIMES", "06:00;18:00"),

		MaxDrugCodes:          getIntEnvWithDefault("MAX_DRUG_CODES", 20),
		MaxIngredientNames:    getIntEnvWithDefault("MAX_INGREDIENT_NAMES", 11),
		PairLookupConcurrency: getIntEnvWithDefault("PAIR_LOOKUP_CONCURRENCY", 4),
		ResolutionTimeout:     getDurationEnvWithDefault("RESOLUTION_TIMEOUT", 10*time.Second),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if len(cfg.CORSOrigins) == 0 {
		return fmt.Errorf("invalid CORS_ORIGINS: at least one origin is required")
	}

	if cfg.RateLimitRate <= 0 || cfg.RateLimitCapacity < 1 {
		return fmt.Errorf("invalid rate limit: RATE_LIMIT_RATE and RATE_LIMIT_CAPACITY must be positive, got: %g, %d",
			cfg.RateLimitRate, cfg.RateLimitCapacity)
	}

	if err := validateRange(cfg.LogRetentionWeeks, 1, 52, "LOG_RETENTION_WEEKS"); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateDataSource(cfg); err != nil {
		return fmt.Errorf("invalid DATA_SOURCE: %w", err)
	}

	if err := validateRefreshTimes(cfg.RefreshTimes); err != nil {
		return fmt.Errorf("invalid REFRESH_TIMES: %w", err)
	}

	if err := validateRange(cfg.MaxDrugCodes, 1, 100, "MAX_DRUG_CODES"); err != nil {
		return fmt.Errorf("invalid MAX_DRUG_CODES: %w", err)
	}

	// 30 names is 435 pair lookups per request
	if err := validateRange(cfg.MaxIngredientNames, 1, 30, "MAX_INGREDIENT_NAMES"); err != nil {
		return fmt.Errorf("invalid MAX_INGREDIENT_NAMES: %w", err)
	}

	if err := validateRange(cfg.PairLookupConcurrency, 1, 64, "PAIR_LOOKUP_CONCURRENCY"); err != nil {
		return fmt.Errorf("invalid PAIR_LOOKUP_CONCURRENCY: %w", err)
	}

	if cfg.ResolutionTimeout <= 0 || cfg.ResolutionTimeout > 2*time.Minute {
		return fmt.Errorf("invalid RESOLUTION_TIMEOUT: must be between 1ns and 2m, got: %s", cfg.ResolutionTimeout)
	}

	return nil
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, bind to a private or loopback address", address)
	}

	return nil
}

func validateEnv(env Environment) error {
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
		return nil
	case "":
		return fmt.Errorf("ENV cannot be empty")
	default:
		return fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
	}
}

func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	switch strings.ToLower(logLevel) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: [debug info warn error], got: %s", logLevel)
	}
}

func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 {
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

func validateRange(value, minValue, maxValue int, configName string) error {
	if value < minValue || value > maxValue {
		return fmt.Errorf("%s must be between %d and %d, got: %d", configName, minValue, maxValue, value)
	}
	return nil
}

func validateDataSource(cfg *Config) error {
	switch cfg.DataSource {
	case SourceFiles:
		if cfg.DrugsSource == "" || cfg.CompositionsSource == "" || cfg.InteractionsSource == "" {
			return fmt.Errorf("files mode needs DRUGS_SOURCE, COMPOSITIONS_SOURCE and INTERACTIONS_SOURCE")
		}
	case SourcePostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
		if cfg.DBMaxConns < 1 || cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) and DB_MAX_CONNS (%d) must satisfy 0 <= min <= max, max >= 1", cfg.DBMinConns, cfg.DBMaxConns)
		}
	default:
		return fmt.Errorf("must be one of: [files postgres], got: %s", cfg.DataSource)
	}
	return nil
}

// ParseRefreshTimes splits a REFRESH_TIMES value into HH:MM entries
func ParseRefreshTimes(value string) ([]string, error) {
	var times []string
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := time.Parse("15:04", part); err != nil {
			return nil, fmt.Errorf("%q is not a HH:MM time", part)
		}
		times = append(times, part)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("at least one HH:MM time is required")
	}
	return times, nil
}

func validateRefreshTimes(value string) error {
	_, err := ParseRefreshTimes(value)
	return err
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// splitList splits a comma-separated value, dropping blank entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"CORS_ORIGINS",
		"RATE_LIMIT_RATE",
		"RATE_LIMIT_CAPACITY",
		"DATA_SOURCE",
		"DATABASE_URL",
		"DB_MAX_CONNS",
		"DB_MIN_CONNS",
		"DRUGS_SOURCE",
		"COMPOSITIONS_SOURCE",
		"INTERACTIONS_SOURCE",
		"REFRESH_TIMES",
		"MAX_DRUG_CODES",
		"MAX_INGREDIENT_NAMES",
		"PAIR_LOOKUP_CONCURRENCY",
		"RESOLUTION_TIMEOUT",
	}
}
