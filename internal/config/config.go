// Package config loads autotrader configuration from a YAML file, a .env
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/intelligence"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUTOTRADER_"

// Config is the full application configuration.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Learning  LearningConfig  `yaml:"learning"`
	Storage   StorageConfig   `yaml:"storage"`
	Market    MarketConfig    `yaml:"market"`
	Execution ExecutionConfig `yaml:"execution"`
	News      NewsConfig      `yaml:"news"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`

	// Strategies replaces the built-in catalog when non-empty.
	Strategies []domain.StrategyProfile `yaml:"strategies"`
}

// AgentConfig configures the controller session.
type AgentConfig struct {
	Symbol            string        `yaml:"symbol"`
	CycleInterval     time.Duration `yaml:"cycle_interval"`
	DailyGoal         float64       `yaml:"daily_goal"`
	Capital           float64       `yaml:"capital"`
	InitialAggression int           `yaml:"initial_aggression"`
	Agents            []string      `yaml:"agents"`
	Timezone          string        `yaml:"timezone"`
}

// LearningConfig configures the learning engine.
type LearningConfig struct {
	Capacity  int `yaml:"capacity"`
	ColdStart int `yaml:"cold_start"`
}

// StorageConfig selects the state backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
	// ArchiveOutcomes stores every outcome in postgres when a DSN is set.
	ArchiveOutcomes bool `yaml:"archive_outcomes"`
}

// MarketConfig configures the market feed.
type MarketConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	MaxSnapshotAge time.Duration `yaml:"max_snapshot_age"`
	OpportunityTTL time.Duration `yaml:"opportunity_ttl"`
}

// ExecutionConfig configures the execution collaborator.
type ExecutionConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	Wallet     string        `yaml:"wallet"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RateLimit  float64       `yaml:"rate_limit"`
	Burst      int           `yaml:"burst"`
}

// NewsConfig configures the RSS source.
type NewsConfig struct {
	Feeds       []string      `yaml:"feeds"`
	MaxAge      time.Duration `yaml:"max_age"`
	MaxArticles int           `yaml:"max_articles"`
}

// TelemetryConfig configures the write-only sinks.
type TelemetryConfig struct {
	Log           bool     `yaml:"log"`
	KafkaBrokers  []string `yaml:"kafka_brokers"`
	KafkaTopic    string   `yaml:"kafka_topic"`
	ClickHouseDSN string   `yaml:"clickhouse_dsn"`
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Agent: AgentConfig{
			Symbol:            "SOL",
			CycleInterval:     30 * time.Second,
			DailyGoal:         200,
			Capital:           10000,
			InitialAggression: 50,
			Agents:            []string{"momentum", "contrarian", "sniper"},
			Timezone:          "Local",
		},
		Learning: LearningConfig{
			Capacity:  1000,
			ColdStart: 10,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Market: MarketConfig{
			Endpoint:       "ws://localhost:8900/stream",
			MaxSnapshotAge: 2 * time.Minute,
			OpportunityTTL: 5 * time.Minute,
		},
		Execution: ExecutionConfig{
			Endpoint:   "http://localhost:8899",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RateLimit:  5,
			Burst:      5,
		},
		News: NewsConfig{
			MaxAge:      24 * time.Hour,
			MaxArticles: 50,
		},
		Telemetry: TelemetryConfig{
			Log:        true,
			KafkaTopic: "autotrader.decisions",
		},
		HTTP: HTTPConfig{Addr: ":9090"},
		Log:  LogConfig{Level: "info"},
	}
}

// Load reads .env (if present), then path (if non-empty), then applies
// environment overrides and validates the result. Variables already set in
// the environment win over .env values.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from AUTOTRADER_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *float64) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = f
		return nil
	}

	str("SYMBOL", &c.Agent.Symbol)
	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("REDIS_URL", &c.Storage.RedisURL)
	str("MARKET_ENDPOINT", &c.Market.Endpoint)
	str("EXECUTION_ENDPOINT", &c.Execution.Endpoint)
	str("WALLET", &c.Execution.Wallet)
	str("CLICKHOUSE_DSN", &c.Telemetry.ClickHouseDSN)
	str("KAFKA_TOPIC", &c.Telemetry.KafkaTopic)
	str("HTTP_ADDR", &c.HTTP.Addr)
	str("LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup(EnvPrefix + "KAFKA_BROKERS"); ok && v != "" {
		c.Telemetry.KafkaBrokers = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "NEWS_FEEDS"); ok && v != "" {
		c.News.Feeds = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "CYCLE_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCYCLE_INTERVAL: %w", EnvPrefix, err)
		}
		c.Agent.CycleInterval = d
	}
	if err := num("DAILY_GOAL", &c.Agent.DailyGoal); err != nil {
		return err
	}
	return num("CAPITAL", &c.Agent.Capital)
}

// Validate rejects configurations the controller cannot run with.
func (c *Config) Validate() error {
	if c.Agent.Symbol == "" {
		return fmt.Errorf("agent.symbol is required")
	}
	if c.Agent.CycleInterval <= 0 {
		return fmt.Errorf("agent.cycle_interval must be positive")
	}
	if c.Agent.DailyGoal <= 0 {
		return fmt.Errorf("agent.daily_goal must be positive")
	}
	if c.Agent.Capital <= 0 {
		return fmt.Errorf("agent.capital must be positive")
	}
	if a := c.Agent.InitialAggression; a != 0 && (a < domain.AggressionFloor || a > domain.AggressionCap) {
		return fmt.Errorf("agent.initial_aggression must be within [%d, %d]", domain.AggressionFloor, domain.AggressionCap)
	}
	if len(c.Agent.Agents) == 0 {
		return fmt.Errorf("agent.agents must name at least one agent")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.ArchiveOutcomes && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage.archive_outcomes requires storage.postgres_dsn")
	}

	if c.Learning.Capacity < 0 || c.Learning.ColdStart < 0 {
		return fmt.Errorf("learning values must not be negative")
	}
	if len(c.Strategies) > 0 {
		if err := intelligence.ValidateCatalog(c.Strategies); err != nil {
			return fmt.Errorf("strategies: %w", err)
		}
	}
	return nil
}

// Location resolves Agent.Timezone. Empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Agent.Timezone == "" || c.Agent.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Agent.Timezone)
	if err != nil {
		return nil, fmt.Errorf("agent.timezone: %w", err)
	}
	return loc, nil
}

// Catalog returns the configured strategy catalog or the built-in one.
func (c *Config) Catalog() []domain.StrategyProfile {
	if len(c.Strategies) > 0 {
		return c.Strategies
	}
	return intelligence.DefaultCatalog()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
