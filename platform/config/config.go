// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSOrigins() []string
}

// AIConfig provides settings for the Groq completion client.
type AIConfig interface {
	GetGroqAPIKey() string
	GetGroqBaseURL() string
	GetGroqModel() string
	GetAICallTimeout() time.Duration
	GetAIRatePerSecond() float64
	GetAIBurst() int
	GetAICacheTTL() time.Duration
	IsAIEnabled() bool
}

// RedisConfig provides the shared Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for asynq clients and workers.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetRescoreInterval() time.Duration
}

// ScoringConfig provides tuning for the lead scoring pipelines.
type ScoringConfig interface {
	GetScoringWindowDays() int
	GetScoringConcurrency() int
	GetOffMarketConcurrency() int
	GetScoringRulesPath() string
}

// StorageConfig provides settings for the MinIO report archive.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetReportsBucket() string
	IsMinIOEnabled() bool
}

// AlertConfig provides SMTP settings for critical-lead alerts.
type AlertConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetAlertFrom() string
	GetAlertRecipients() []string
	IsAlertingEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string
	CORSOrigins []string

	GroqAPIKey      string
	GroqBaseURL     string
	GroqModel       string
	AICallTimeout   time.Duration
	AIRatePerSecond float64
	AIBurst         int
	AICacheTTL      time.Duration

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	RescoreInterval  time.Duration

	ScoringWindowDays    int
	ScoringConcurrency   int
	OffMarketConcurrency int
	ScoringRulesPath     string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	ReportsBucket  string

	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	AlertFrom       string
	AlertRecipients []string
}

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *Config) GetGroqAPIKey() string            { return c.GroqAPIKey }
func (c *Config) GetGroqBaseURL() string           { return c.GroqBaseURL }
func (c *Config) GetGroqModel() string             { return c.GroqModel }
func (c *Config) GetAICallTimeout() time.Duration  { return c.AICallTimeout }
func (c *Config) GetAIRatePerSecond() float64      { return c.AIRatePerSecond }
func (c *Config) GetAIBurst() int                  { return c.AIBurst }
func (c *Config) GetAICacheTTL() time.Duration     { return c.AICacheTTL }
func (c *Config) IsAIEnabled() bool                { return c.GroqAPIKey != "" }

func (c *Config) GetRedisURL() string               { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool         { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string         { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int          { return c.AsynqConcurrency }
func (c *Config) GetRescoreInterval() time.Duration { return c.RescoreInterval }

func (c *Config) GetScoringWindowDays() int    { return c.ScoringWindowDays }
func (c *Config) GetScoringConcurrency() int   { return c.ScoringConcurrency }
func (c *Config) GetOffMarketConcurrency() int { return c.OffMarketConcurrency }
func (c *Config) GetScoringRulesPath() string  { return c.ScoringRulesPath }

func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetReportsBucket() string  { return c.ReportsBucket }
func (c *Config) IsMinIOEnabled() bool      { return c.MinIOEndpoint != "" }

func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string      { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetAlertFrom() string         { return c.AlertFrom }
func (c *Config) GetAlertRecipients() []string { return c.AlertRecipients }
func (c *Config) IsAlertingEnabled() bool {
	return c.SMTPHost != "" && len(c.AlertRecipients) > 0
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:       getEnv("GROQ_MODEL", "llama3-8b-8192"),
		AICallTimeout:   mustDuration(getEnv("AI_CALL_TIMEOUT", "12s")),
		AIRatePerSecond: mustFloat(getEnv("AI_RATE_PER_SECOND", "2")),
		AIBurst:         mustInt(getEnv("AI_BURST", "4")),
		AICacheTTL:      mustDuration(getEnv("AI_CACHE_TTL", "6h")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "leadscoring"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "2")),
		RescoreInterval:  mustDuration(getEnv("RESCORE_INTERVAL", "6h")),

		ScoringWindowDays:    mustInt(getEnv("SCORING_WINDOW_DAYS", "30")),
		ScoringConcurrency:   mustInt(getEnv("SCORING_CONCURRENCY", "4")),
		OffMarketConcurrency: mustInt(getEnv("OFFMARKET_CONCURRENCY", "8")),
		ScoringRulesPath:     getEnv("SCORING_RULES_PATH", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:    strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		ReportsBucket:  getEnv("REPORTS_BUCKET", "lead-reports"),

		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		AlertFrom:       getEnv("ALERT_FROM", ""),
		AlertRecipients: splitCSV(getEnv("ALERT_RECIPIENTS", "")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ScoringWindowDays <= 0 {
		return fmt.Errorf("SCORING_WINDOW_DAYS must be positive")
	}
	if c.AICallTimeout <= 0 {
		return fmt.Errorf("AI_CALL_TIMEOUT must be a positive duration")
	}
	if c.AIRatePerSecond <= 0 || c.AIBurst <= 0 {
		return fmt.Errorf("AI_RATE_PER_SECOND and AI_BURST must be positive")
	}
	if c.IsAlertingEnabled() && c.AlertFrom == "" {
		return fmt.Errorf("ALERT_FROM is required when SMTP_HOST and ALERT_RECIPIENTS are set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
