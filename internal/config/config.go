package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Clinic website the resolved short links land on.
	DestinationBaseURL string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Clinic-management system the appointment list is fetched from.
	SourceBaseURL string
	SourceTimeout time.Duration

	// Shared secret for the scheduled reminder trigger.
	CronSecret     string
	AdminJWTSecret string

	// Doctors eligible for automated reminders.
	DoctorAllowlist []string

	// Local wall-clock window for real patient slots.
	BusinessHourStart int
	BusinessHourEnd   int

	AppointmentDuration time.Duration
	LinkTTL             time.Duration
	LinkCodeLength      int
	RunLockTTL          time.Duration

	CORSAllowedOrigins []string

	// SendGrid email configuration for run-failure alerts.
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AlertRecipients   []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DestinationBaseURL: getEnv("CLINIC_SITE_BASE_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SourceBaseURL: getEnv("APPOINTMENT_SOURCE_BASE_URL", ""),
		SourceTimeout: getEnvAsDuration("APPOINTMENT_SOURCE_TIMEOUT", 15*time.Second),

		CronSecret:     getEnv("REMINDER_CRON_SECRET", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		DoctorAllowlist: getEnvAsSlice("REMINDER_DOCTOR_ALLOWLIST", nil),

		BusinessHourStart: getEnvAsInt("BUSINESS_HOUR_START", 8),
		BusinessHourEnd:   getEnvAsInt("BUSINESS_HOUR_END", 20),

		AppointmentDuration: getEnvAsDuration("APPOINTMENT_DURATION", 30*time.Minute),
		LinkTTL:             getEnvAsDuration("SHORT_LINK_TTL", 72*time.Hour),
		LinkCodeLength:      getEnvAsInt("SHORT_LINK_CODE_LENGTH", 8),
		RunLockTTL:          getEnvAsDuration("REMINDER_RUN_LOCK_TTL", 10*time.Minute),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "BrightCare Clinic"),
		AlertRecipients:   getEnvAsSlice("ALERT_RECIPIENTS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable as a slice,
// trimming whitespace and dropping empty entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
