// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"sync"
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
	Session   SessionConfig   `koanf:"session"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
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
	DrainDelay      time.Duration `koanf:"drain_delay"`
	// TrustedProxies lists the CIDRs or addresses allowed to set the client
	// IP through forwarding headers.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
	KeyPrefix    string `koanf:"key_prefix"`
}

type SessionConfig struct {
	PrivateKeyPath string        `koanf:"private_key_path"`
	PublicKeyPath  string        `koanf:"public_key_path"`
	TTL            time.Duration `koanf:"ttl"`
	RememberTTL    time.Duration `koanf:"remember_ttl"`
	CookieName     string        `koanf:"cookie_name"`
	CookieSecure   bool          `koanf:"cookie_secure"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
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

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Freelancer Packages",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.drain_delay":      "5s",
		"server.trusted_proxies":  []string{},

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.key_prefix":     "freelancer",

		"session.private_key_path": "keys/private.pem",
		"session.public_key_path":  "keys/public.pem",
		"session.ttl":              "24h",
		"session.remember_ttl":     "720h",
		"session.cookie_name":      "session",
		"session.cookie_secure":    false,
		"session.issuer":           "freelancer-packages",
		"session.audience":         "freelancer-packages-web",

		"rate_limit.requests":      100,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         20,
		"rate_limit.auth_requests": 10,
		"rate_limit.auth_burst":    5,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "freelancer-packages",
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
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"REDIS_KEY_PREFIX":            "redis.key_prefix",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"TRUSTED_PROXIES":             "server.trusted_proxies",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"SESSION_PRIVATE_KEY_PATH":    "session.private_key_path",
	"SESSION_PUBLIC_KEY_PATH":     "session.public_key_path",
	"SESSION_TTL":                 "session.ttl",
	"SESSION_REMEMBER_TTL":        "session.remember_ttl",
	"SESSION_COOKIE_NAME":         "session.cookie_name",
	"SESSION_COOKIE_SECURE":       "session.cookie_secure",
	"SESSION_ISSUER":              "session.issuer",
	"SESSION_AUDIENCE":            "session.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":    "rate_limit.auth_requests",
	"RATE_LIMIT_AUTH_BURST":       "rate_limit.auth_burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

var listKeys = map[string]struct{}{
	"server.trusted_proxies": {},
}

// envValue maps a known variable onto its config key. List keys take a comma
// separated value.
func envValue(name, value string) (string, any) {
	key, ok := envKeyMap[name]
	if !ok {
		return "", nil
	}
	if _, isList := listKeys[key]; isList {
		return key, strings.Split(value, ",")
	}
	return key, value
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Session.PrivateKeyPath == "" {
		return fmt.Errorf("SESSION_PRIVATE_KEY_PATH is required")
	}

	if c.Session.PublicKeyPath == "" {
		return fmt.Errorf("SESSION_PUBLIC_KEY_PATH is required")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name must not be empty")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	if c.Session.RememberTTL < c.Session.TTL {
		return fmt.Errorf("session.remember_ttl must not be shorter than session.ttl")
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if !c.Session.CookieSecure {
			return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
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
