package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret-at-least-32-characters!!")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "clinicdesk-api", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.True(t, cfg.Sweep.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Sweep.Interval)
	assert.Equal(t, time.Hour, cfg.Sweep.RepairInterval)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsShortSweepInterval(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret-at-least-32-characters!!")
	t.Setenv("SWEEP_INTERVAL", "10s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SWEEP_INTERVAL")
}

func TestProductionValidation(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DB_SSLMODE", "disable")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
	assert.Contains(t, err.Error(), "DB_SSLMODE")
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		Name:     "clinic",
		User:     "svc",
		Password: "pw",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal user=svc password=pw dbname=clinic port=5433 sslmode=require Timezone=UTC",
		cfg.DSN(),
	)
}
