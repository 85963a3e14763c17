package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration. Values come from an optional YAML file
// named by CONFIG_FILE and are overridden by environment variables.
type Config struct {
	DatabaseDriver      string   `yaml:"database_driver"`
	DatabaseURL         string   `yaml:"database_url"`
	JWTSecret           string   `yaml:"jwt_secret"`
	JWTIssuer           string   `yaml:"jwt_issuer"`
	AccessTTLSeconds    int64    `yaml:"access_ttl_seconds"`
	RefreshTTLSeconds   int64    `yaml:"refresh_ttl_seconds"`
	PublicDir           string   `yaml:"public_dir"`
	UploadPrefix        string   `yaml:"upload_prefix"`
	MigrationsDir       string   `yaml:"migrations_dir"`
	CorsOrigins         []string `yaml:"cors_origins"`
	TrustedProxies      []string `yaml:"trusted_proxies"`
	RedisAddr           string   `yaml:"redis_addr"`
	RedisPassword       string   `yaml:"redis_password"`
	RateLimitPerMinute  int      `yaml:"rate_limit_per_minute"`
	NormalizeImagePaths bool     `yaml:"normalize_image_paths"`
	Port                string   `yaml:"port"`
	LogDir              string   `yaml:"log_dir"`
	LogRetentionDays    int      `yaml:"log_retention_days"`
}

func Load() Config {
	cfg, err := load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func load() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}

	cfg.DatabaseDriver = envOr("DATABASE_DRIVER", orDefault(cfg.DatabaseDriver, "mysql"))
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = envOr("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOr("JWT_ISSUER", orDefault(cfg.JWTIssuer, "kfolx"))
	cfg.AccessTTLSeconds = int64(envOrInt("ACCESS_TTL_SECONDS", int(orDefaultInt64(cfg.AccessTTLSeconds, 14400))))
	cfg.RefreshTTLSeconds = int64(envOrInt("REFRESH_TTL_SECONDS", int(orDefaultInt64(cfg.RefreshTTLSeconds, 1209600))))
	cfg.PublicDir = envOr("PUBLIC_DIR", orDefault(cfg.PublicDir, "public"))
	cfg.UploadPrefix = strings.Trim(envOr("UPLOAD_PREFIX", orDefault(cfg.UploadPrefix, "uploads")), "/")
	cfg.RedisAddr = envOr("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envOr("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RateLimitPerMinute = envOrInt("RATE_LIMIT_PER_MINUTE", orDefaultInt(cfg.RateLimitPerMinute, 10))
	cfg.NormalizeImagePaths = envOrBool("NORMALIZE_IMAGE_PATHS", cfg.NormalizeImagePaths)
	cfg.Port = envOr("PORT", orDefault(cfg.Port, "8080"))
	cfg.LogDir = envOr("LOG_DIR", orDefault(cfg.LogDir, "storage/logs"))
	cfg.LogRetentionDays = envOrInt("LOG_RETENTION_DAYS", orDefaultInt(cfg.LogRetentionDays, 7))
	if origins := parseCSV(os.Getenv("CORS_ORIGINS")); origins != nil {
		cfg.CorsOrigins = origins
	}
	if proxies := parseCSV(os.Getenv("TRUSTED_PROXIES")); proxies != nil {
		cfg.TrustedProxies = proxies
	}

	switch cfg.DatabaseDriver {
	case "mysql", "pgx":
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER: %s", cfg.DatabaseDriver)
	}
	cfg.MigrationsDir = envOr("MIGRATIONS_DIR", orDefault(cfg.MigrationsDir, filepath.Join("migrations", migrationsFlavor(cfg.DatabaseDriver))))

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing env var: DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing env var: JWT_SECRET")
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func migrationsFlavor(driver string) string {
	if driver == "pgx" {
		return "postgres"
	}
	return "mysql"
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func orDefaultInt64(value, fallback int64) int64 {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
