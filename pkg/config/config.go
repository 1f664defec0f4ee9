// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Crawler, Graph, Storage, Server, Redis, Postgres, Kafka, etc.).
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
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Graph    GraphConfig    `yaml:"graph"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CrawlerConfig bounds a single crawl: how far it may branch, how many people
// it may collect and when a persisted index is considered out of date.
type CrawlerConfig struct {
	RecursionLimit int           `yaml:"recursionLimit"`
	StaleAfter     time.Duration `yaml:"staleAfter"`
	MaxPeople      int           `yaml:"maxPeople"`
	DefaultPeople  int           `yaml:"defaultPeople"`
	StopPercent    float64       `yaml:"stopPercent"`
}

// GraphConfig holds the knowledge-graph endpoint and the protection applied
// around every query sent to it.
type GraphConfig struct {
	Endpoint         string        `yaml:"endpoint"`
	Namespace        string        `yaml:"namespace"`
	Timeout          time.Duration `yaml:"timeout"`
	RatePerSecond    float64       `yaml:"ratePerSecond"`
	Burst            int           `yaml:"burst"`
	RetryAttempts    int           `yaml:"retryAttempts"`
	RetryDelay       time.Duration `yaml:"retryDelay"`
	BreakerFailures  uint32        `yaml:"breakerFailures"`
	BreakerCoolDown  time.Duration `yaml:"breakerCoolDown"`
	BreakerHalfOpens uint32        `yaml:"breakerHalfOpens"`
}

// StorageConfig locates index files and the crawl results log.
type StorageConfig struct {
	DataDir    string `yaml:"dataDir"`
	ResultsLog string `yaml:"resultsLog"`
}

// ServerConfig holds HTTP server settings. RequestsPerMinute caps API calls
// per client address; 0 disables the cap.
type ServerConfig struct {
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
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
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CrawlReports string `yaml:"crawlReports"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config that crawls the public DBpedia endpoint and keeps
// its index files in the working directory.
func Default() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			RecursionLimit: 15,
			StaleAfter:     24 * time.Hour,
			MaxPeople:      300,
			DefaultPeople:  50,
			StopPercent:    5,
		},
		Graph: GraphConfig{
			Endpoint:         "https://dbpedia.org/sparql",
			Namespace:        "http://dbpedia.org/resource/",
			Timeout:          60 * time.Second,
			RatePerSecond:    5,
			Burst:            5,
			RetryAttempts:    2,
			RetryDelay:       500 * time.Millisecond,
			BreakerFailures:  5,
			BreakerCoolDown:  30 * time.Second,
			BreakerHalfOpens: 1,
		},
		Storage: StorageConfig{
			DataDir:    ".",
			ResultsLog: "analytics.csv",
		},
		Server: ServerConfig{
			Port:              8080,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      15 * time.Minute,
			ShutdownTimeout:   15 * time.Second,
			RequestsPerMinute: 30,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 24 * time.Hour,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "personcrawler",
			User:            "personcrawler",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				CrawlReports: "crawl-reports",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Validate rejects limits that cannot describe a crawl and clamps the default
// people count to the hard upper bound.
func (c *Config) Validate() error {
	if c.Crawler.RecursionLimit < 0 {
		return fmt.Errorf("crawler.recursionLimit must not be negative, got %d", c.Crawler.RecursionLimit)
	}
	if c.Crawler.MaxPeople <= 0 {
		return fmt.Errorf("crawler.maxPeople must be positive, got %d", c.Crawler.MaxPeople)
	}
	if c.Crawler.StopPercent <= 0 || c.Crawler.StopPercent > 100 {
		return fmt.Errorf("crawler.stopPercent must be in (0, 100], got %v", c.Crawler.StopPercent)
	}
	if c.Crawler.StaleAfter < 0 {
		return fmt.Errorf("crawler.staleAfter must not be negative, got %v", c.Crawler.StaleAfter)
	}
	if c.Graph.Endpoint == "" {
		return fmt.Errorf("graph.endpoint is required")
	}
	if c.Crawler.DefaultPeople <= 0 || c.Crawler.DefaultPeople > c.Crawler.MaxPeople {
		c.Crawler.DefaultPeople = c.Crawler.MaxPeople
	}
	return nil
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_CRAWLER_RECURSION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.RecursionLimit = n
		}
	}
	if v := os.Getenv("SP_CRAWLER_STALE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Crawler.StaleAfter = d
		}
	}
	if v := os.Getenv("SP_CRAWLER_MAX_PEOPLE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.MaxPeople = n
		}
	}
	if v := os.Getenv("SP_GRAPH_ENDPOINT"); v != "" {
		cfg.Graph.Endpoint = v
	}
	if v := os.Getenv("SP_GRAPH_NAMESPACE"); v != "" {
		cfg.Graph.Namespace = v
	}
	if v := os.Getenv("SP_STORAGE_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SP_STORAGE_RESULTS_LOG"); v != "" {
		cfg.Storage.ResultsLog = v
	}
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
		cfg.Postgres.Enabled = true
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
