package api_gateway_config

import (
	"time"

	"github.com/NordCoder/storefront-auth/internal/obs"
	pg "github.com/NordCoder/storefront-auth/internal/repository/postgres"
	rdb "github.com/NordCoder/storefront-auth/internal/repository/redis"
	"github.com/NordCoder/storefront-auth/internal/repository/store"
	"github.com/NordCoder/storefront-auth/internal/services/reaper"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type Store struct {
	Backend string `mapstructure:"backend"`
}

type Auth struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	Issuer        string        `mapstructure:"issuer"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	CookieDomain  string        `mapstructure:"cookie_domain"`
	CookiePath    string        `mapstructure:"cookie_path"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
}

type Reaper struct {
	Enable     bool `mapstructure:"enable"`
	reaper.Cfg `mapstructure:",squash"`
}

type Kafka struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Config struct {
	App    App            `mapstructure:"app"`
	Server Server         `mapstructure:"server"`
	Store  Store          `mapstructure:"store"`
	DB     pg.Config      `mapstructure:"db"`
	Redis  rdb.Config     `mapstructure:"redis"`
	OTEL   obs.OTELConfig `mapstructure:"otel"`
	Log    obs.LogConfig  `mapstructure:"log"`
	Auth   Auth           `mapstructure:"auth"`
	Reaper Reaper         `mapstructure:"reaper"`
	Kafka  Kafka          `mapstructure:"kafka"`
}

func (c *Config) StoreConfig() store.Config {
	return store.Config{Backend: c.Store.Backend, DB: c.DB, Redis: c.Redis}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }

const (
	ErrNoSecrets     ErrConfig = "auth.access_secret and auth.refresh_secret are required"
	ErrSameSecrets   ErrConfig = "auth.access_secret and auth.refresh_secret must differ"
	ErrBadTTL        ErrConfig = "auth.access_ttl and auth.refresh_ttl must be positive"
	ErrNoDSN         ErrConfig = "db.dsn is required for the postgres store"
	ErrNoRedisAddr   ErrConfig = "redis.addr is required for the redis store"
	ErrUnknownStore  ErrConfig = "store.backend must be postgres, redis or memory"
	ErrNoKafkaBroker ErrConfig = "kafka.brokers is required when kafka is enabled"
)

func (c *Config) Validate() error {
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return ErrNoSecrets
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return ErrSameSecrets
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return ErrBadTTL
	}
	switch c.Store.Backend {
	case store.BackendPostgres:
		if c.DB.DSN == "" {
			return ErrNoDSN
		}
	case store.BackendRedis:
		if c.Redis.Addr == "" {
			return ErrNoRedisAddr
		}
	case store.BackendMemory:
	default:
		return ErrUnknownStore
	}
	if c.Kafka.Enable && len(c.Kafka.Brokers) == 0 {
		return ErrNoKafkaBroker
	}
	return nil
}
