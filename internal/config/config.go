package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port                 string
	DBConn               string
	LogLevel             string
	JWTSecret            string
	FiscalYearStartMonth time.Month
	FetchTimeout         time.Duration
	ClosedPeriodTTL      time.Duration
	OpenPeriodTTL        time.Duration
	CacheSweepInterval   time.Duration
	DigestSchedule       string
	DigestRecipient      string
	SenderEmail          string
	SMTPHost             string
	SMTPPort             string
	SMTPUsername         string
	SMTPPassword         string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	fiscalStart, err := getEnvInt("FISCAL_YEAR_START_MONTH", 7)
	if err != nil {
		return nil, err
	}
	if fiscalStart < 1 || fiscalStart > 12 {
		return nil, fmt.Errorf("FISCAL_YEAR_START_MONTH must be 1-12, got %d", fiscalStart)
	}
	fetchTimeout, err := getEnvDuration("FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	closedTTL, err := getEnvDuration("CLOSED_PERIOD_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	openTTL, err := getEnvDuration("OPEN_PERIOD_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	sweep, err := getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DBConn:               getEnv("DB_CONN", "host=localhost port=5432 user=ledger password=ledger dbname=practice sslmode=disable"),
		LogLevel:             getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:            getEnv("JWT_SECRET", "secret"),
		FiscalYearStartMonth: time.Month(fiscalStart),
		FetchTimeout:         fetchTimeout,
		ClosedPeriodTTL:      closedTTL,
		OpenPeriodTTL:        openTTL,
		CacheSweepInterval:   sweep,
		DigestSchedule:       getEnv("DIGEST_SCHEDULE", "0 7 * * *"),
		DigestRecipient:      getEnv("DIGEST_RECIPIENT", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", "ops@hgpartners.example"),
		SMTPHost:             getEnv("SMTP_HOST", "localhost"),
		SMTPPort:             getEnv("SMTP_PORT", "587"),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
