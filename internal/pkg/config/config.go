package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int  `mapstructure:"port"`
	ReadTimeout  int  `mapstructure:"read_timeout"`
	WriteTimeout int  `mapstructure:"write_timeout"`
	BodyLimit    int  `mapstructure:"body_limit"`
	RateLimit    int  `mapstructure:"rate_limit"` // requests per minute per IP
	Legacy       bool `mapstructure:"legacy"`     // serve the deprecated unversioned endpoints

	OpenAPIFile string `mapstructure:"openapi_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CorpusConfig locates the GPX files and bounds how they are scanned.
type CorpusConfig struct {
	Dir              string        `mapstructure:"dir"`
	Workers          int           `mapstructure:"workers"`
	ParseTimeout     time.Duration `mapstructure:"parse_timeout"`
	MaxDocumentBytes int64         `mapstructure:"max_document_bytes"`
	IncludeEmpty     bool          `mapstructure:"include_empty"`
}

// DatabaseConfig selects the mirror backend. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	Path     string `mapstructure:"path"` // sqlite only
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
	Durable string `mapstructure:"durable"`
}

type ValkeyConfig struct {
	Addr    string        `mapstructure:"addr"`
	Enabled bool          `mapstructure:"enabled"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	TaskQueue string `mapstructure:"task_queue"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	return load(viper.New(), service)
}

func load(v *viper.Viper, service string) (*Config, error) {
	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.body_limit", 32<<20)
	v.SetDefault("server.rate_limit", 300)
	v.SetDefault("server.legacy", true)
	v.SetDefault("server.openapi_file", "api/openapi.yaml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("corpus.dir", "./uploads")
	v.SetDefault("corpus.workers", 4)
	v.SetDefault("corpus.parse_timeout", "5s")
	v.SetDefault("corpus.max_document_bytes", 32<<20)
	v.SetDefault("corpus.include_empty", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gpx")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "gpxcorpus")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.path", "gpxcorpus.db")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.durable", "mirror-sync")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.lock_ttl", "30s")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "gpx-mirror")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GPXCORPUS_CORPUS_DIR → corpus.dir
	v.SetEnvPrefix("GPXCORPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Corpus.Dir == "" {
		errs = append(errs, "corpus.dir is required")
	}
	if c.Corpus.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("corpus.workers must be positive, got %d", c.Corpus.Workers))
	}
	if c.Corpus.ParseTimeout <= 0 {
		errs = append(errs, "corpus.parse_timeout must be positive")
	}
	if c.Corpus.MaxDocumentBytes <= 0 {
		errs = append(errs, "corpus.max_document_bytes must be positive")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be postgres or sqlite, got %q", c.Database.Driver))
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
