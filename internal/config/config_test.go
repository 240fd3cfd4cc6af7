package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8, cfg.BusinessHourStart)
	assert.Equal(t, 20, cfg.BusinessHourEnd)
	assert.Equal(t, 30*time.Minute, cfg.AppointmentDuration)
	assert.Equal(t, 72*time.Hour, cfg.LinkTTL)
	assert.Equal(t, 8, cfg.LinkCodeLength)
	assert.Equal(t, 10*time.Minute, cfg.RunLockTTL)
	assert.Empty(t, cfg.DoctorAllowlist)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REMINDER_DOCTOR_ALLOWLIST", "Anna Nowak, Jan Kowalski ,")
	t.Setenv("BUSINESS_HOUR_START", "7")
	t.Setenv("SHORT_LINK_TTL", "48h")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"Anna Nowak", "Jan Kowalski"}, cfg.DoctorAllowlist)
	assert.Equal(t, 7, cfg.BusinessHourStart)
	assert.Equal(t, 48*time.Hour, cfg.LinkTTL)
	assert.True(t, cfg.RedisTLS)
}

func TestGetEnvAsSliceIgnoresBlank(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " , ,")
	cfg := Load()
	assert.Nil(t, cfg.CORSAllowedOrigins)
}

func TestGetEnvAsDurationInvalid(t *testing.T) {
	t.Setenv("APPOINTMENT_SOURCE_TIMEOUT", "not-a-duration")
	cfg := Load()
	assert.Equal(t, 15*time.Second, cfg.SourceTimeout)
}
