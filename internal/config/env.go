package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// LLM
	AnthropicAPIKey       string  `yaml:"anthropic_api_key"`
	LLMModel              string  `yaml:"llm_model"`
	LLMTemperature        float64 `yaml:"llm_temperature"`
	LLMAPIURL             string  `yaml:"llm_api_url"`
	LLMTimeoutSeconds     int     `yaml:"llm_timeout_seconds"`
	PersistTimeoutSeconds int     `yaml:"persist_timeout_seconds"`

	// Remote events service; empty means the local store is used
	EventsAPIURL   string `yaml:"events_api_url"`
	EventsAPIToken string `yaml:"events_api_token"`

	DBPath          string `yaml:"db_path"`
	HTTPPort        int    `yaml:"http_port"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	DefaultTimezone string `yaml:"default_timezone"`
	SessionTTLHours int    `yaml:"session_ttl_hours"`

	// Google Calendar mirror
	GoogleCredentialsFile string `yaml:"google_credentials_file"`
	GoogleTokenFile       string `yaml:"google_token_file"`
	GCalSync              bool   `yaml:"gcal_sync"`

	// Email
	ResendAPIKey string `yaml:"resend_api_key"`
	EmailFrom    string `yaml:"email_from"`
	AppURL       string `yaml:"app_url"`

	// Reminder worker
	ReminderSchedule string `yaml:"reminder_schedule"`
	ReminderLeadDays int    `yaml:"reminder_lead_days"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		LLMModel:              "claude-sonnet-4-20250514",
		LLMTemperature:        0.1,
		LLMTimeoutSeconds:     30,
		PersistTimeoutSeconds: 10,
		DBPath:                "./planit.db",
		HTTPPort:              8080,
		LogLevel:              "info",
		LogFormat:             "text",
		DefaultTimezone:       "UTC",
		SessionTTLHours:       24 * 30,
		GoogleCredentialsFile: "./credentials.json",
		GoogleTokenFile:       "./token.json",
		AppURL:                "http://localhost:8080",
		ReminderSchedule:      "0 9 * * *",
		ReminderLeadDays:      7,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// PLANIT_CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("PLANIT_CONFIG_FILE"); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds the configuration from defaults and environment only.
func LoadFromEnv() *Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	c.AnthropicAPIKey = getEnvOrDefault("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.LLMModel = getEnvOrDefault("PLANIT_LLM_MODEL", c.LLMModel)
	c.LLMTemperature = getEnvAsFloatOrDefault("PLANIT_LLM_TEMPERATURE", c.LLMTemperature)
	c.LLMAPIURL = getEnvOrDefault("PLANIT_LLM_API_URL", c.LLMAPIURL)
	c.LLMTimeoutSeconds = getEnvAsIntOrDefault("PLANIT_LLM_TIMEOUT_SECONDS", c.LLMTimeoutSeconds)
	c.PersistTimeoutSeconds = getEnvAsIntOrDefault("PLANIT_PERSIST_TIMEOUT_SECONDS", c.PersistTimeoutSeconds)

	c.EventsAPIURL = getEnvOrDefault("PLANIT_EVENTS_API_URL", c.EventsAPIURL)
	c.EventsAPIToken = getEnvOrDefault("PLANIT_EVENTS_API_TOKEN", c.EventsAPIToken)

	c.DBPath = getEnvOrDefault("PLANIT_DB_PATH", c.DBPath)
	c.HTTPPort = getEnvAsIntOrDefault("PLANIT_HTTP_PORT", c.HTTPPort)
	c.LogLevel = getEnvOrDefault("PLANIT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("PLANIT_LOG_FORMAT", c.LogFormat)
	c.DefaultTimezone = getEnvOrDefault("PLANIT_DEFAULT_TIMEZONE", c.DefaultTimezone)
	c.SessionTTLHours = getEnvAsIntOrDefault("PLANIT_SESSION_TTL_HOURS", c.SessionTTLHours)

	c.GoogleCredentialsFile = getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", c.GoogleCredentialsFile)
	c.GoogleTokenFile = getEnvOrDefault("GOOGLE_TOKEN_FILE", c.GoogleTokenFile)
	c.GCalSync = getEnvAsBoolOrDefault("PLANIT_GCAL_SYNC", c.GCalSync)

	c.ResendAPIKey = getEnvOrDefault("RESEND_API_KEY", c.ResendAPIKey)
	c.EmailFrom = getEnvOrDefault("PLANIT_EMAIL_FROM", c.EmailFrom)
	c.AppURL = strings.TrimRight(getEnvOrDefault("PLANIT_APP_URL", c.AppURL), "/")

	c.ReminderSchedule = getEnvOrDefault("PLANIT_REMINDER_SCHEDULE", c.ReminderSchedule)
	c.ReminderLeadDays = getEnvAsIntOrDefault("PLANIT_REMINDER_LEAD_DAYS", c.ReminderLeadDays)
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTPPort)
	}
	if c.LLMTimeoutSeconds <= 0 {
		return fmt.Errorf("llm timeout must be positive")
	}
	if c.PersistTimeoutSeconds <= 0 {
		return fmt.Errorf("persist timeout must be positive")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default timezone %q: %w", c.DefaultTimezone, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	if c.ReminderLeadDays < 0 {
		return fmt.Errorf("reminder lead days cannot be negative")
	}
	return nil
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c *Config) PersistTimeout() time.Duration {
	return time.Duration(c.PersistTimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) ReminderLead() time.Duration {
	return time.Duration(c.ReminderLeadDays) * 24 * time.Hour
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
