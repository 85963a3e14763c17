package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DATABASE_DRIVER", "DATABASE_URL", "JWT_SECRET", "JWT_ISSUER",
		"ACCESS_TTL_SECONDS", "REFRESH_TTL_SECONDS", "PUBLIC_DIR", "UPLOAD_PREFIX",
		"MIGRATIONS_DIR", "CORS_ORIGINS", "TRUSTED_PROXIES", "REDIS_ADDR", "REDIS_PASSWORD",
		"RATE_LIMIT_PER_MINUTE", "NORMALIZE_IMAGE_PATHS", "PORT", "LOG_DIR", "LOG_RETENTION_DAYS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "root:@tcp(localhost:3306)/kf_olx")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DatabaseDriver)
	assert.Equal(t, "kfolx", cfg.JWTIssuer)
	assert.Equal(t, int64(14400), cfg.AccessTTLSeconds)
	assert.Equal(t, "uploads", cfg.UploadPrefix)
	assert.Equal(t, filepath.Join("migrations", "mysql"), cfg.MigrationsDir)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CorsOrigins)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, "storage/logs", cfg.LogDir)
	assert.Equal(t, 7, cfg.LogRetentionDays)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `database_driver: pgx
database_url: postgres://localhost/kfolx
jwt_secret: from-file
public_dir: /srv/www
upload_prefix: /media/
rate_limit_per_minute: 3
normalize_image_paths: true
trusted_proxies:
  - 10.0.0.0/8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://localhost/kfolx", cfg.DatabaseURL)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "/srv/www", cfg.PublicDir)
	assert.Equal(t, "media", cfg.UploadPrefix)
	assert.Equal(t, filepath.Join("migrations", "postgres"), cfg.MigrationsDir)
	assert.Equal(t, 3, cfg.RateLimitPerMinute)
	assert.True(t, cfg.NormalizeImagePaths)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
}

func TestLoadRequiresSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "root:@tcp(localhost:3306)/kf_olx")
	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file.db")
	t.Setenv("JWT_SECRET", "secret")
	_, err := load()
	require.Error(t, err)
}
