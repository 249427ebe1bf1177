package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the pipeline and its API shell.
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Outbound HTTP
	FetchTimeout     time.Duration `json:"fetch_timeout"`
	MaxBodyBytes     int64         `json:"max_body_bytes"`
	ProxyURL         string        `json:"proxy_url"`
	FetchConcurrency int           `json:"fetch_concurrency"`
	ExcerptLen       int           `json:"excerpt_len"`

	// Dedup windows
	MaxItemAgeHours     int `json:"max_item_age_hours"`
	SuppressWindowHours int `json:"suppress_window_hours"`
	RetentionDays       int `json:"retention_days"`

	// Storage
	DBPath   string `json:"db_path"`
	RedisURL string `json:"redis_url"`

	// AI configuration
	AIApiKey        string        `json:"ai_api_key"`
	AIModel         string        `json:"ai_model"`
	AITimeout       time.Duration `json:"ai_timeout"`
	AIMaxTokens     int           `json:"ai_max_tokens"`
	MaxDigestItems  int           `json:"max_digest_items"`
	MaxTopItems     int           `json:"max_top_items"`
	SummaryMaxChars int           `json:"summary_max_chars"`
	StrictURLCheck  bool          `json:"strict_url_check"`

	// Webhook distribution
	WebhookURL     string        `json:"webhook_url"`
	WebhookSecret  string        `json:"webhook_secret"`
	PushDelay      time.Duration `json:"push_delay"`
	PlainTextLimit int           `json:"plain_text_limit"`

	// Digest archive (S3-compatible object store, optional)
	ArchiveEndpoint  string `json:"archive_endpoint"`
	ArchiveAccessKey string `json:"archive_access_key"`
	ArchiveSecretKey string `json:"archive_secret_key"`
	ArchiveBucket    string `json:"archive_bucket"`

	// Logging
	LogLevel string `json:"log_level"`

	// Security
	AdminAPIKey string `json:"admin_api_key"`

	// Scheduler (server mode, optional)
	ScheduleEvery time.Duration `json:"schedule_every"`
	ScheduleType  string        `json:"schedule_type"`
}

// Load loads configuration from environment variables.
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		FetchTimeout:     getEnvAsDuration("FETCH_TIMEOUT", 20*time.Second),
		MaxBodyBytes:     getEnvAsInt64("MAX_BODY_BYTES", 2<<20), // 2MB
		ProxyURL:         getEnv("PROXY_URL", ""),
		FetchConcurrency: getEnvAsInt("FETCH_CONCURRENCY", 5),
		ExcerptLen:       getEnvAsInt("EXCERPT_LEN", 400),

		MaxItemAgeHours:     getEnvAsInt("MAX_ITEM_AGE_HOURS", 72),
		SuppressWindowHours: getEnvAsInt("SUPPRESS_WINDOW_HOURS", 72),
		RetentionDays:       getEnvAsInt("RETENTION_DAYS", 7),

		DBPath:   getEnv("DB_PATH", "./data/newsbrief.db"),
		RedisURL: getEnv("REDIS_URL", ""),

		AIApiKey:        getEnv("AI_API_KEY", ""),
		AIModel:         getEnv("AI_MODEL", "gemini-pro"),
		AITimeout:       getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		AIMaxTokens:     getEnvAsInt("AI_MAX_TOKENS", 2000),
		MaxDigestItems:  getEnvAsInt("MAX_DIGEST_ITEMS", 12),
		MaxTopItems:     getEnvAsInt("MAX_TOP_ITEMS", 4),
		SummaryMaxChars: getEnvAsInt("SUMMARY_MAX_CHARS", 140),
		StrictURLCheck:  getEnvAsBool("STRICT_URL_CHECK", true),

		WebhookURL:     getEnv("WEBHOOK_URL", ""),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		PushDelay:      getEnvAsDuration("PUSH_DELAY", 600*time.Millisecond),
		PlainTextLimit: getEnvAsInt("PLAIN_TEXT_LIMIT", 3500),

		ArchiveEndpoint:  getEnv("ARCHIVE_ENDPOINT", ""),
		ArchiveAccessKey: getEnv("ARCHIVE_ACCESS_KEY", ""),
		ArchiveSecretKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
		ArchiveBucket:    getEnv("ARCHIVE_BUCKET", "newsbrief"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		ScheduleEvery: getEnvAsDuration("SCHEDULE_EVERY", 0),
		ScheduleType:  getEnv("SCHEDULE_TYPE", "morning"),
	}
}

// SuppressWindow returns the lookup horizon for history suppression.
func (c *Config) SuppressWindow() time.Duration {
	return time.Duration(c.SuppressWindowHours) * time.Hour
}

// MaxItemAge returns the staleness cutoff for fetched items.
func (c *Config) MaxItemAge() time.Duration {
	return time.Duration(c.MaxItemAgeHours) * time.Hour
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
