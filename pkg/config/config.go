// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Decoder, PhraseTable, Gateway, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	PhraseTable PhraseTableConfig `yaml:"phraseTable"`
	Decoder     DecoderConfig     `yaml:"decoder"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Logging     LoggingConfig     `yaml:"logging"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters, used here to
// persist a decode audit log (source text, status, decode time; the 1-best
// output, score and latency are not stored).
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DecodeRequests  string `yaml:"decodeRequests"`
	DecodeComplete  string `yaml:"decodeComplete"`
	CacheInvalidate string `yaml:"cacheInvalidate"`
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and n-best caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PhraseTableConfig controls loading and on-disk layout of the phrase
// table used by the decoder.
type PhraseTableConfig struct {
	DataDir        string        `yaml:"dataDir"`
	SegmentMaxSize int64         `yaml:"segmentMaxSize"`
	ReloadInterval time.Duration `yaml:"reloadInterval"`
}

// DecoderConfig mirrors internal/decoder/search.Config's tunables
// (spec.md §6) plus the sentence-level worker pool size.
type DecoderConfig struct {
	PoolWorkers            int           `yaml:"poolWorkers"`
	SentenceTimeout        time.Duration `yaml:"sentenceTimeout"`
	MaxStackSize           int           `yaml:"maxStackSize"`
	BeamWidth              float64       `yaml:"beamWidth"`
	StackDiversity         int           `yaml:"stackDiversity"`
	CubePruningPopLimit    int           `yaml:"cubePruningPopLimit"`
	CubePruningDiversity   int           `yaml:"cubePruningDiversity"`
	MaxDistortion          int           `yaml:"maxDistortion"`
	MonotoneAtPunctuation  bool          `yaml:"monotoneAtPunctuation"`
	MaxPhraseLength        int           `yaml:"maxPhraseLength"`
	MaxTransOptPerCoverage int           `yaml:"maxTransOptPerCoverage"`
	Weights                []float64     `yaml:"weights"`
	NBestSize              int           `yaml:"nBestSize"`
	RPCPort                int           `yaml:"rpcPort"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls distributed tracing (sample rate, endpoint).
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// GatewayConfig holds the API gateway port and upstream service URLs.
type GatewayConfig struct {
	Port         int    `yaml:"port"`
	IngestionURL string `yaml:"ingestionUrl"`
	DecoderURL   string `yaml:"decoderUrl"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "cubedecoder",
			User:            "cubedecoder",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "cubedecoder-group",
			Topics: KafkaTopics{
				DecodeRequests:  "decode-requests",
				DecodeComplete:  "decode.complete",
				CacheInvalidate: "cache-invalidate",
				AnalyticsEvents: "analytics-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		PhraseTable: PhraseTableConfig{
			DataDir:        "./data/phrasetable",
			SegmentMaxSize: 64 << 20,
			ReloadInterval: 5 * time.Minute,
		},
		Decoder: DecoderConfig{
			PoolWorkers:            8,
			SentenceTimeout:        2 * time.Second,
			MaxStackSize:           200,
			BeamWidth:              0,
			StackDiversity:         0,
			CubePruningPopLimit:    1000,
			CubePruningDiversity:   0,
			MaxDistortion:          6,
			MonotoneAtPunctuation:  false,
			MaxPhraseLength:        7,
			MaxTransOptPerCoverage: 20,
			NBestSize:              1,
			RPCPort:                9091,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Gateway: GatewayConfig{
			Port:         8082,
			IngestionURL: "http://localhost:8081",
			DecoderURL:   "http://localhost:8080",
		},
	}
}

// applyEnvOverrides reads CD_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CD_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CD_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CD_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CD_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CD_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CD_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("CD_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CD_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CD_PHRASETABLE_DATADIR"); v != "" {
		cfg.PhraseTable.DataDir = v
	}
	if v := os.Getenv("CD_DECODER_POOL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Decoder.PoolWorkers = n
		}
	}
	if v := os.Getenv("CD_DECODER_MAX_DISTORTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Decoder.MaxDistortion = n
		}
	}
	if v := os.Getenv("CD_DECODER_RPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Decoder.RPCPort = port
		}
	}
	if v := os.Getenv("CD_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CD_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CD_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("CD_GATEWAY_INGESTION_URL"); v != "" {
		cfg.Gateway.IngestionURL = v
	}
	if v := os.Getenv("CD_GATEWAY_DECODER_URL"); v != "" {
		cfg.Gateway.DecoderURL = v
	}
}
