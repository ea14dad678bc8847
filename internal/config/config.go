package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionSQLite = "sqlite"
)

// Export backends.
const (
	ExportNone   = "none"
	ExportMemory = "memory"
	ExportGoogle = "google"
)

type Config struct {
	// HTTP Server
	Port string

	// Remote expense API
	APIBaseURL string
	APITimeout time.Duration

	// Sessions
	SessionBackend             string
	SQLiteDBPath               string
	SessionTTL                 time.Duration
	SessionCookieName          string
	SessionCookieSecure        bool
	MaxSessions                int
	ClearSessionOnUnauthorized bool

	// Rate limits, in limiter format ("60-M")
	RateLimit      string
	LoginRateLimit string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export
	ExportBackend            string
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env if present, then the environment. Environment wins.
func Load() *Config {
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("API_BASE_URL", "https://personal-expense-tracker-api-066w.onrender.com")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("SESSION_BACKEND", SessionMemory)
	v.SetDefault("SQLITE_DB_PATH", "./data/sessions.db")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_COOKIE_NAME", "tracker_session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("MAX_SESSIONS", 1000)
	v.SetDefault("CLEAR_SESSION_ON_UNAUTHORIZED", false)
	v.SetDefault("RATE_LIMIT", "120-M")
	v.SetDefault("LOGIN_RATE_LIMIT", "10-M")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "tracker")
	v.SetDefault("AMQP_QUEUE", "tracker_activity")
	v.SetDefault("EXPORT_BACKEND", "")
	v.SetDefault("GOOGLE_SPREADSHEET_ID", "")
	v.SetDefault("GOOGLE_SHEET_NAME", "Expenses")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port:       v.GetString("PORT"),
		APIBaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		APITimeout: v.GetDuration("API_TIMEOUT"),

		SessionBackend:             strings.ToLower(v.GetString("SESSION_BACKEND")),
		SQLiteDBPath:               v.GetString("SQLITE_DB_PATH"),
		SessionTTL:                 v.GetDuration("SESSION_TTL"),
		SessionCookieName:          v.GetString("SESSION_COOKIE_NAME"),
		SessionCookieSecure:        v.GetBool("SESSION_COOKIE_SECURE"),
		MaxSessions:                v.GetInt("MAX_SESSIONS"),
		ClearSessionOnUnauthorized: v.GetBool("CLEAR_SESSION_ON_UNAUTHORIZED"),

		RateLimit:      v.GetString("RATE_LIMIT"),
		LoginRateLimit: v.GetString("LOGIN_RATE_LIMIT"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		ExportBackend:            strings.ToLower(v.GetString("EXPORT_BACKEND")),
		GoogleSpreadsheetID:      v.GetString("GOOGLE_SPREADSHEET_ID"),
		GoogleSheetName:          v.GetString("GOOGLE_SHEET_NAME"),
		GoogleServiceAccountFile: v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	// Without an explicit choice, export goes to Sheets only when a
	// spreadsheet is configured.
	if cfg.ExportBackend == "" {
		cfg.ExportBackend = ExportNone
		if cfg.GoogleSpreadsheetID != "" {
			cfg.ExportBackend = ExportGoogle
		}
	}
	return cfg
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if u, err := url.Parse(c.APIBaseURL); err != nil || c.APIBaseURL == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}
	if c.APITimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be positive", c.APITimeout))
	}

	switch c.SessionBackend {
	case SessionMemory:
	case SessionSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite session backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of [%s %s]", c.SessionBackend, SessionMemory, SessionSQLite))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionCookieName == "" {
		errors = append(errors, "session cookie name cannot be empty")
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}

	for _, r := range []struct{ key, rate string }{
		{"RATE_LIMIT", c.RateLimit},
		{"LOGIN_RATE_LIMIT", c.LoginRateLimit},
	} {
		if _, err := limiter.NewRateFromFormatted(r.rate); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", r.key, r.rate, err))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.ExportBackend {
	case ExportNone, ExportMemory:
	case ExportGoogle:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using google export backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of [%s %s %s]", c.ExportBackend, ExportNone, ExportMemory, ExportGoogle))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
