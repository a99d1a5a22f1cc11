package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string
	Port        int
	Environment string

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// rate limits
	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`
	CoachRateLimitAllowedPerMin int `toml:"coach_rate_limit_allowed_per_min"`

	// coach / llm
	OpenRouterBaseURL string `toml:"open_router_base_url"`

	// workouts backup metrics socket
	BackupUnixSocketAddrDir  string `toml:"backup_unix_socket_addr_dir"`
	BackupUnixSocketFileName string `toml:"backup_unix_socket_file_name"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML config file and returns the section for the given
// environment, with defaults applied for unset values.
func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env %s not found in %s", env, path)
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "trace"
	}
	if cfg.PostgresHost == "" {
		cfg.PostgresHost = "localhost"
	}
	if cfg.PostgresPort == "" {
		cfg.PostgresPort = "5432"
	}
	if cfg.PostgresDBName == "" {
		cfg.PostgresDBName = "gympal"
	}
	if cfg.RedisHost == "" {
		cfg.RedisHost = "localhost"
	}
	if cfg.RedisPort == "" {
		cfg.RedisPort = "6379"
	}
	if cfg.PrometheusMetricsHost == "" {
		cfg.PrometheusMetricsHost = "localhost"
	}
	if cfg.PrometheusMetricsPort == "" {
		cfg.PrometheusMetricsPort = "2112"
	}
	if cfg.LoginRateLimitAllowedPerMin == 0 {
		cfg.LoginRateLimitAllowedPerMin = 5
	}
	if cfg.CoachRateLimitAllowedPerMin == 0 {
		cfg.CoachRateLimitAllowedPerMin = 10
	}
	if cfg.OpenRouterBaseURL == "" {
		cfg.OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.BackupUnixSocketFileName == "" {
		cfg.BackupUnixSocketFileName = "gympal-backup.sock"
	}
}
