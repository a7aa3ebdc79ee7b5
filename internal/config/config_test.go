package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENTERPRISE_MODE", "")
	t.Setenv("SERIALIZE_ADMISSIONS", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "")

	cfg := Load()
	assert.False(t, cfg.EnterpriseMode)
	assert.True(t, cfg.SerializeAdmissions)
	assert.Equal(t, 5*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 720*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, 30, cfg.LogRetentionDays)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENTERPRISE_MODE", "true")
	t.Setenv("SERIALIZE_ADMISSIONS", "off")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("JWT_ACCESS_EXPIRY", "1h")
	t.Setenv("DB_NAME", "quota")

	cfg := Load()
	assert.True(t, cfg.EnterpriseMode)
	assert.False(t, cfg.SerializeAdmissions)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, time.Hour, cfg.JWTAccessExpiry)
	assert.Contains(t, cfg.DSN(), "dbname=quota")
}

func TestHelpersFallBack(t *testing.T) {
	t.Setenv("SOME_INT", "nope")
	t.Setenv("SOME_BOOL", "maybe")

	assert.Equal(t, 7, getInt("SOME_INT", 7))
	assert.True(t, getBool("SOME_BOOL", true))
	assert.Equal(t, 15*time.Minute, parseDuration("garbage"))
}
