package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port        string
	Env         string
	CORSOrigins []string
	EnablePprof bool

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth: tokens are issued by the hosted backend and verified with its secret
	JWTSecret      string
	PipelineAPIKey string

	// Email
	EmailAPIURL    string
	EmailAPIKey    string
	EmailFrom      string
	EmailTimeout   time.Duration
	ReminderEmails bool

	// Notifications
	BudgetWarningPct  int
	BudgetCriticalPct int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		CORSOrigins: strings.Fields(getEnv("CORS_ALLOW_ORIGINS", "")),
		EnablePprof: getBool("ENABLE_PPROF", false),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "fintrack"),
		DBPassword: getEnv("DB_PASSWORD", "fintrack"),
		DBName:     getEnv("DB_NAME", "fintrack"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:      getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		PipelineAPIKey: getEnv("PIPELINE_API_KEY", ""),

		EmailAPIURL:    getEnv("EMAIL_API_URL", ""),
		EmailAPIKey:    getEnv("EMAIL_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "FinTrack <notifications@fintrack.local>"),
		EmailTimeout:   getDuration("EMAIL_TIMEOUT", 10*time.Second),
		ReminderEmails: getBool("REMINDER_EMAILS", false),

		BudgetWarningPct:  getInt("BUDGET_WARNING_PCT", 80),
		BudgetCriticalPct: getInt("BUDGET_CRITICAL_PCT", 100),
	}

	if config.BudgetWarningPct > config.BudgetCriticalPct {
		log.Printf("Warning: BUDGET_WARNING_PCT %d is above BUDGET_CRITICAL_PCT %d, using 80/100\n",
			config.BudgetWarningPct, config.BudgetCriticalPct)
		config.BudgetWarningPct, config.BudgetCriticalPct = 80, 100
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// EmailEnabled reports whether outbound email is configured.
func (c *Config) EmailEnabled() bool {
	return c.EmailAPIURL != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %t\n", key, raw, defaultValue)
		return defaultValue
	}
	return b
}
