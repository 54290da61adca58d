package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone   AuthMode = "none"   // No authentication required (default)
	AuthModeLocal  AuthMode = "local"  // Local user database with sessions
	AuthModeGoogle AuthMode = "google" // Google OAuth sign-in
)

type (
	Config struct {
		HTTP
		Global
		Database
		Catalog
		Auth
		Tasks
		Enrichment
		Progress
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Catalog struct {
		APIKey  string
		BaseURL string // Override for tests; empty means the public API
	}

	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)

		// Google OAuth credentials (required when Mode == google)
		GoogleClientID     string
		GoogleClientSecret string
		GoogleRedirectURL  string
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}

	Enrichment struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}

	Progress struct {
		// RecordNonPositiveDeltas controls whether zero/negative page
		// deltas are appended to the activity log or silently skipped.
		RecordNonPositiveDeltas bool
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Catalog defaults
	v.SetDefault("catalog_api_key", "")
	v.SetDefault("catalog_base_url", "")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)   // Max failed attempts
	v.SetDefault("auth_lockout_duration", "30m") // Lockout duration
	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("google_redirect_url", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Background enrichment defaults
	v.SetDefault("enrichment_enabled", false)
	v.SetDefault("enrichment_schedule", "0 * * * *") // Hourly at :00

	// Progress engine defaults
	v.SetDefault("progress_record_non_positive_deltas", false)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Catalog: Catalog{
			APIKey:  v.GetString("CATALOG_API_KEY"),
			BaseURL: v.GetString("CATALOG_BASE_URL"),
		},
		Auth: Auth{
			Mode:               AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:      v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:    v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:        v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:         v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:      v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts:   v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:    v.GetDuration("AUTH_LOCKOUT_DURATION"),
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Enrichment: Enrichment{
			Enabled:  v.GetBool("ENRICHMENT_ENABLED"),
			Schedule: v.GetString("ENRICHMENT_SCHEDULE"),
		},
		Progress: Progress{
			RecordNonPositiveDeltas: v.GetBool("PROGRESS_RECORD_NON_POSITIVE_DELTAS"),
		},
	}
}
