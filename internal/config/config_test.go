package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
  shutdown_timeout: "5s"

database:
  host: "db"
  port: 5433
  user: "forum"
  password: "secret"
  name: "forum"
  sslmode: "require"
  max_open_conns: 20

store:
  driver: "postgres"

log:
  level: "debug"
  format: "text"

cors:
  allowed_origins: "http://a.test, http://b.test"

realtime:
  path: "/ws"
  write_timeout: "2s"
  pong_timeout: "30s"
  ping_interval: "20s"
  max_message_bytes: 1024
`

func TestLoad_ValidYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, validYAML))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "host=db user=forum password=secret dbname=forum port=5433 sslmode=require TimeZone=UTC", cfg.Database.DSN())
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.Origins())
	assert.Equal(t, "/ws", cfg.Realtime.Path)
	assert.Equal(t, 20*time.Second, cfg.Realtime.PingInterval)
	assert.EqualValues(t, 1024, cfg.Realtime.MaxMessageBytes)
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, validYAML))
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("STORE_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Store.Migrate)
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "/socket", cfg.Realtime.Path)
	assert.Equal(t, 10*time.Second, cfg.Realtime.WriteTimeout)
	assert.Equal(t, 50*time.Second, cfg.Realtime.PingInterval)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORS.Methods())
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, "server: [unclosed"))

	_, err := Load()
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8000},
		Database: DatabaseConfig{Host: "localhost", Name: "fake_so"},
		Store:    StoreConfig{Driver: DriverPostgres},
		Log:      LogConfig{Level: "info", Format: "json"},
		CORS:     CORSConfig{AllowedOrigins: "http://localhost:3000"},
		Realtime: RealtimeConfig{
			Path:            "/socket",
			WriteTimeout:    10 * time.Second,
			PongTimeout:     60 * time.Second,
			PingInterval:    50 * time.Second,
			MaxMessageBytes: 4096,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"memory driver ignores database", func(c *Config) { c.Store.Driver = DriverMemory; c.Database = DatabaseConfig{} }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, true},
		{"postgres without host", func(c *Config) { c.Database.Host = "" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"relative socket path", func(c *Config) { c.Realtime.Path = "socket" }, true},
		{"ping slower than pong timeout", func(c *Config) { c.Realtime.PingInterval = 90 * time.Second }, true},
		{"no cors origins", func(c *Config) { c.CORS.AllowedOrigins = " , " }, true},
		{"zero write timeout", func(c *Config) { c.Realtime.WriteTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}
