package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `yaml:"host"               env:"DB_HOST"                env-default:"localhost"`
	Port            int           `yaml:"port"               env:"DB_PORT"                env-default:"5432"`
	User            string        `yaml:"user"               env:"DB_USER"                env-default:"postgres"`
	Password        string        `yaml:"password"           env:"DB_PASSWORD"`
	Name            string        `yaml:"name"               env:"DB_NAME"                env-default:"fake_so"`
	SSLMode         string        `yaml:"sslmode"            env:"DB_SSLMODE"             env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns"     env:"DB_MAX_OPEN_CONNS"      env-default:"100"`
	MaxIdleConns    int           `yaml:"max_idle_conns"     env:"DB_MAX_IDLE_CONNS"      env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"  env:"DB_CONN_MAX_LIFETIME"   env-default:"1h"`
	SlowThreshold   time.Duration `yaml:"slow_threshold"     env:"DB_SLOW_THRESHOLD"      env-default:"1s"`
}

// DSN returns the key/value connection string understood by pgx.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StoreConfig selects the document store implementation.
type StoreConfig struct {
	Driver  string `yaml:"driver"  env:"STORE_DRIVER"  env-default:"postgres"`
	Migrate bool   `yaml:"migrate" env:"STORE_MIGRATE" env-default:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string        `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"http://localhost:3000"`
	AllowedMethods   string        `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string        `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Accept,Content-Type,X-Request-ID,X-Requested-With"`
	AllowCredentials bool          `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           time.Duration `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"12h"`
}

// Origins splits AllowedOrigins on commas.
func (c CORSConfig) Origins() []string { return splitList(c.AllowedOrigins) }

// Methods splits AllowedMethods on commas.
func (c CORSConfig) Methods() []string { return splitList(c.AllowedMethods) }

// Headers splits AllowedHeaders on commas.
func (c CORSConfig) Headers() []string { return splitList(c.AllowedHeaders) }

// RealtimeConfig holds websocket gateway settings.
type RealtimeConfig struct {
	Path            string        `yaml:"path"              env:"REALTIME_PATH"              env-default:"/socket"`
	WriteTimeout    time.Duration `yaml:"write_timeout"     env:"REALTIME_WRITE_TIMEOUT"     env-default:"10s"`
	PongTimeout     time.Duration `yaml:"pong_timeout"      env:"REALTIME_PONG_TIMEOUT"      env-default:"60s"`
	PingInterval    time.Duration `yaml:"ping_interval"     env:"REALTIME_PING_INTERVAL"     env-default:"50s"`
	MaxMessageBytes int64         `yaml:"max_message_bytes" env:"REALTIME_MAX_MESSAGE_BYTES" env-default:"4096"`
}

// TracingConfig holds OpenTelemetry export settings. Tracing is disabled when
// Endpoint is empty.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"     env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"           env-default:"qa-forum"`
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
