package api_gateway_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_ACCESS_SECRET", "a-secret")
	t.Setenv("AUTH_REFRESH_SECRET", "r-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, 24*time.Hour, cfg.Reaper.Interval)
	assert.True(t, cfg.Reaper.Enable)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, "storefront:refresh:", cfg.Redis.Prefix)
	assert.Equal(t, "storefront-auth", cfg.OTEL.ServiceName)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api-gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: redis
redis:
  addr: cache:6379
auth:
  access_secret: from-file-a
  refresh_secret: from-file-r
  refresh_ttl: 168h
reaper:
  interval: 1h
`), 0o600))
	t.Setenv("AUTH_ACCESS_TTL", "30m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, time.Hour, cfg.Reaper.Interval)
	assert.Equal(t, "redis", cfg.StoreConfig().Backend)
}

func TestLoad_RejectsMissingSecrets(t *testing.T) {
	t.Setenv("AUTH_ACCESS_SECRET", "")
	t.Setenv("AUTH_REFRESH_SECRET", "")
	_, err := Load("")
	require.ErrorIs(t, err, ErrNoSecrets)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Store: Store{Backend: "memory"},
			Auth:  Auth{AccessSecret: "a", RefreshSecret: "b", AccessTTL: time.Minute, RefreshTTL: time.Hour},
		}
	}

	c := base()
	require.NoError(t, c.Validate())

	c = base()
	c.Auth.RefreshSecret = "a"
	require.ErrorIs(t, c.Validate(), ErrSameSecrets)

	c = base()
	c.Auth.AccessTTL = 0
	require.ErrorIs(t, c.Validate(), ErrBadTTL)

	c = base()
	c.Store.Backend = "mongo"
	require.ErrorIs(t, c.Validate(), ErrUnknownStore)

	c = base()
	c.Kafka.Enable = true
	require.ErrorIs(t, c.Validate(), ErrNoKafkaBroker)
}
