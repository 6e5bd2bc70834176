package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CSFLOAT_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 90*time.Second, cfg.Cache.ListingTTL)
	assert.Equal(t, time.Minute, cfg.Cache.CleanupInterval)
	assert.Equal(t, 60*time.Second, cfg.Snapshot.RateLimit)
	assert.Equal(t, 2*time.Hour, cfg.Snapshot.AlertCooldown)
	assert.Equal(t, 800*time.Millisecond, cfg.Steam.RetryBackoff)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.App.IsDevelopment())
	assert.False(t, cfg.Twilio.Enabled())
}

func TestLoad_ProductionRequiresMarketKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CSFLOAT_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CSFLOAT_API_KEY", "k")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_RejectsUnknownDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_TYPE", "mongodb")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_AcceptsDialectAliases(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	for _, db := range []string{"sqlite", "sqlite3", "SQLite", "postgres", "postgresql", "mysql"} {
		t.Setenv("DB_TYPE", db)
		_, err := Load()
		assert.NoError(t, err, db)
	}
}

func TestDSNs(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", d.PostgresDSN())

	d.Port = 3306
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true", d.MySQLDSN())
}

func TestTwilioEnabled(t *testing.T) {
	tw := TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}
	assert.False(t, tw.Enabled())
	tw.FromNumber = "+15550001111"
	assert.True(t, tw.Enabled())
}
