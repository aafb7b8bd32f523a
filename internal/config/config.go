// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	RBAC      RBACConfig      `koanf:"rbac"`
	JobOrder  JobOrderConfig  `koanf:"job_order"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Cron      CronConfig      `koanf:"cron"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL              string        `koanf:"url"`
	ApplicationName  string        `koanf:"application_name"`
	MaxOpenConns     int           `koanf:"max_open_conns"`
	MaxIdleConns     int           `koanf:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `koanf:"conn_max_idle_time"`
	StatementTimeout time.Duration `koanf:"statement_timeout"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	ClientName   string        `koanf:"client_name"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	PoolTimeout  time.Duration `koanf:"pool_timeout"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type RBACConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type JobOrderConfig struct {
	Timezone        string `koanf:"timezone"`
	PageSize        int    `koanf:"page_size"`
	WriteRateLimit  int    `koanf:"write_rate_limit"`
	WriteRateBurst  int    `koanf:"write_rate_burst"`
	NotifyAssignees bool   `koanf:"notify_assignees"`
}

// Location resolves Timezone, which decides the calendar day a job order
// number is issued under.
func (c JobOrderConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type CronConfig struct {
	Enabled            bool   `koanf:"enabled"`
	TokenPurgeSchedule string `koanf:"token_purge_schedule"`
}

// Load layers defaults, the optional YAML file at configPath and the
// mapped environment variables, in that order, then validates the result.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Job Orders",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.application_name":   "joborders",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.statement_timeout":  "30s",

		"redis.client_name":    "joborders",
		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.pool_timeout":   "30s",

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "joborders",
		"jwt.audience":             "joborders-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "joborders",

		"rbac.cache_ttl": "5m",

		"job_order.timezone":         "UTC",
		"job_order.page_size":        10,
		"job_order.write_rate_limit": 30,
		"job_order.write_rate_burst": 10,
		"job_order.notify_assignees": true,

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"cron.enabled":              true,
		"cron.token_purge_schedule": "@hourly",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_STATEMENT_TIMEOUT":  "database.statement_timeout",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"RBAC_CACHE_TTL":              "rbac.cache_ttl",
	"JOB_ORDER_TIMEZONE":          "job_order.timezone",
	"JOB_ORDER_PAGE_SIZE":         "job_order.page_size",
	"JOB_ORDER_WRITE_RATE_LIMIT":  "job_order.write_rate_limit",
	"JOB_ORDER_WRITE_RATE_BURST":  "job_order.write_rate_burst",
	"JOB_ORDER_NOTIFY_ASSIGNEES":  "job_order.notify_assignees",
	"METRICS_ENABLED":             "metrics.enabled",
	"METRICS_PATH":                "metrics.path",
	"CRON_ENABLED":                "cron.enabled",
	"TOKEN_PURGE_SCHEDULE":        "cron.token_purge_schedule",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

// validate reports every problem at once.
func validate(c *Config) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Database.URL == "" {
		fail("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		fail("REDIS_URL is required")
	}
	if c.JWT.PrivateKeyPath == "" {
		fail("JWT_PRIVATE_KEY_PATH is required")
	}
	if c.JWT.PublicKeyPath == "" {
		fail("JWT_PUBLIC_KEY_PATH is required")
	}
	if c.JWT.AccessTokenExpire <= 0 || c.JWT.RefreshTokenExpire <= c.JWT.AccessTokenExpire {
		fail("jwt.refresh_token_expire must outlive jwt.access_token_expire")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				fail("CORS wildcard '*' cannot be used with AllowCredentials")
			}
		}
	}

	if c.IsProduction() && c.Otel.Enabled && c.Otel.Insecure {
		fail("OTEL_INSECURE must be false in production")
	}

	if c.Server.ReadTimeout <= 0 {
		fail("server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		fail("server.write_timeout must be positive")
	}
	if c.Database.StatementTimeout < 0 {
		fail("database.statement_timeout must not be negative")
	}

	if _, err := c.JobOrder.Location(); err != nil {
		fail("job_order.timezone: %w", err)
	}
	if c.JobOrder.PageSize < 1 {
		fail("job_order.page_size must be positive")
	}
	if c.JobOrder.WriteRateLimit < 1 || c.JobOrder.WriteRateBurst < 1 {
		fail("job_order write rate limit and burst must be positive")
	}

	if c.RBAC.CacheTTL < 0 {
		fail("rbac.cache_ttl must not be negative")
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
