package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	App    string `mapstructure:"-"`
	Env    string `mapstructure:"-"`
	Ver    string `mapstructure:"-"`
}

// NewLogger builds the process logger. Pretty selects the console encoder
// for local runs; otherwise output is JSON. An unknown level means info.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if c.Pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(c.Level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = !c.Pretty

	fields := []zap.Field{zap.String("service", c.App)}
	if c.Env != "" {
		fields = append(fields, zap.String("env", c.Env))
	}
	if c.Ver != "" {
		fields = append(fields, zap.String("version", c.Ver))
	}
	return cfg.Build(zap.Fields(fields...))
}

func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
