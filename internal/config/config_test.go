package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_MySQL(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("GUEST_DB_DRIVER", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "wedding")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_ROLE", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DirectoryConfig{Driver: DriverMySQL, DBUser: "app", DBHost: "db", DBPort: "3306", DBName: "wedding"}, cfg.Directory)
	assert.Equal(t, AuthConfig{JWTSecret: "s3cret", AdminRole: "authenticated", AccessTTLMin: 60}, cfg.Auth)
}

func TestLoadDirectoryConfig_Postgres(t *testing.T) {
	t.Setenv("GUEST_DB_DRIVER", "PGX")
	t.Setenv("GUEST_DB_DSN", "postgres://u:p@localhost:5432/wedding")

	assert.Equal(t, DirectoryConfig{Driver: DriverPostgres, DSN: "postgres://u:p@localhost:5432/wedding"}, LoadDirectoryConfig())
}

func TestLoadLayoutConfig(t *testing.T) {
	t.Setenv("LAYOUT_BACKEND", "")
	t.Setenv("HITTEST_ROTATION_AWARE", "yes")

	cfg := LoadLayoutConfig()
	assert.Equal(t, LayoutBackendSQLite, cfg.Backend)
	assert.Equal(t, "data/layout.db", cfg.SQLitePath)
	assert.True(t, cfg.RotationAwareHitTest)
}

func TestLoadBlobConfig(t *testing.T) {
	t.Setenv("BLOB_BACKEND", "s3")
	t.Setenv("BLOB_ENDPOINT", "https://example.supabase.co/storage/v1/s3")
	t.Setenv("BLOB_PATH_STYLE", "true")

	cfg := LoadBlobConfig()
	assert.Equal(t, BlobBackendS3, cfg.Backend)
	assert.True(t, cfg.PathStyle)
	assert.Equal(t, "layouts", cfg.Prefix)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "nonsense")

	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
}

func TestLoadQueueConfig(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")

	cfg := LoadQueueConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.URL)
	assert.Equal(t, "seating.events", cfg.Queue)
}

func TestLoadInviteConfig(t *testing.T) {
	t.Setenv("RSVP_BASE_URL", "")
	t.Setenv("INVITE_SIGNATURE", "Susana & Javier")

	cfg := LoadInviteConfig()
	assert.Equal(t, "http://localhost:3000/?token=", cfg.RSVPBaseURL)
	assert.Equal(t, "Susana & Javier", cfg.Signature)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FLAG", "maybe")
	assert.True(t, envBool("FLAG", true))
	t.Setenv("FLAG", "off")
	assert.False(t, envBool("FLAG", true))
}
