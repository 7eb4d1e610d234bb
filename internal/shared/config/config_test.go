package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ServicePorts(t *testing.T) {
	t.Setenv("SERVICE_NAME", "admin-service")
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, "8084", cfg.HTTPPort)
	assert.Equal(t, "9100", cfg.MetricsPort)
	assert.Equal(t, "match_completed", cfg.TopicMatchCompleted)
	assert.False(t, cfg.MigrateOnStart)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "odds-service")
	t.Setenv("FEED_CACHE_TTL", "5s")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("KAFKA_TOPIC_BET_SETTLED", "settled_v2")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.FeedCacheTTL)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, "settled_v2", cfg.TopicBetSettled)
}

func TestValidate(t *testing.T) {
	cfg := Config{Env: "prod", PostgresDSN: "postgres://x", MetricsPort: "9000"}
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.Env = "local"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []byte("local-dev-secret"), cfg.Secret())

	cfg.PostgresDSN = ""
	assert.ErrorContains(t, cfg.Validate(), "POSTGRES_DSN")
}

func TestLoadService_DefaultsName(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")

	cfg := LoadService("bet-service")
	assert.Equal(t, "bet-service", cfg.ServiceName)
	assert.Equal(t, "8083", cfg.HTTPPort)
	assert.Equal(t, "9099", cfg.MetricsPort)
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, Config{}.AllowedOrigins())
	assert.Equal(t,
		[]string{"http://localhost:5173", "https://app.example.com"},
		Config{CORSAllowedOrigins: " http://localhost:5173, https://app.example.com,"}.AllowedOrigins())
}
