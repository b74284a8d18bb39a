package token_reaper_config

import (
	"github.com/NordCoder/storefront-auth/internal/obs"
	pg "github.com/NordCoder/storefront-auth/internal/repository/postgres"
	rdb "github.com/NordCoder/storefront-auth/internal/repository/redis"
	"github.com/NordCoder/storefront-auth/internal/repository/store"
	"github.com/NordCoder/storefront-auth/internal/services/reaper"
)

type KafkaCfg struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type ReaperCfg struct {
	reaper.Cfg  `mapstructure:",squash"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Config struct {
	Store    string         `mapstructure:"store"`
	DB       pg.Config      `mapstructure:"db"`
	Redis    rdb.Config     `mapstructure:"redis"`
	Kafka    KafkaCfg       `mapstructure:"kafka"`
	Reaper   ReaperCfg      `mapstructure:"reaper"`
	OTEL     obs.OTELConfig `mapstructure:"otel"`
	LogLevel string         `mapstructure:"log_level"`
}

func (c *Config) StoreConfig() store.Config {
	return store.Config{Backend: c.Store, DB: c.DB, Redis: c.Redis}
}
