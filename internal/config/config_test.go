package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "railway_reservation", cfg.Database.DBName)
	assert.Equal(t, 3, cfg.Booking.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Booking.RetryBaseWait)
	assert.Equal(t, 30, cfg.Booking.ScheduleDays)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_NAME", "railway_test")
	t.Setenv("BOOKING_MAX_RETRIES", "5")
	t.Setenv("BOOKING_LOCK_TTL", "30s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "railway_test", cfg.Database.DBName)
	assert.Equal(t, 5, cfg.Booking.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Booking.LockTTL)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("BOOKING_MAX_RETRIES", "not-a-number")
	t.Setenv("BOOKING_LOCK_TTL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 3, cfg.Booking.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Booking.LockTTL)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: "5432", User: "app", Password: "secret",
		DBName: "railway", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=railway sslmode=disable", cfg.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: "6379"}
	assert.Equal(t, "cache:6379", cfg.Addr())
}
