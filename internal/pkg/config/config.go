package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	SMTP       SMTPConfig
	Generation GenerationConfig
	Renderer   RendererConfig
	Dispatch   DispatchConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	URL         string
	FrontendURL string
}

type ServerConfig struct {
	Host         string
	Port         int `validate:"min=1,max=65535"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ServiceToken authenticates the external cron caller on the
	// internal trigger endpoints. Empty disables the check.
	ServiceToken string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// GenerationConfig describes the external workflow engine that turns a
// prompt plus identity context into report or task output text.
type GenerationConfig struct {
	WebhookURL    string
	Token         string
	Timeout       time.Duration
	CallsPerMin   int
}

// RendererConfig describes the visualization/thumbnail webhook invoked
// per delivered report message.
type RendererConfig struct {
	WebhookURL string
	Token      string
	Timeout    time.Duration
}

type DispatchConfig struct {
	ReportBatchSize  int `validate:"min=1"`
	TaskBatchSize    int `validate:"min=1"`
	TaskLookahead    time.Duration
	ClaimLease       time.Duration
	StaleExecution   time.Duration
	RetentionDays    int
	// TaskFailurePolicy decides what happens to a task's schedule when
	// generation fails: skip_slot advances to the next period (the
	// execution row records the failure), hold_slot leaves next_run_at
	// untouched so the next tick retries.
	TaskFailurePolicy string `validate:"oneof=skip_slot hold_slot"`

	// Built-in poll loop, for deployments without an external cron.
	PollEnabled  bool
	PollInterval time.Duration
	LeaderKey    string
	LeaderTTL    time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config

	// App
	cfg.App.Name = viper.GetString("app.name")
	cfg.App.Environment = viper.GetString("app.environment")
	cfg.App.Debug = viper.GetBool("app.debug")
	cfg.App.URL = viper.GetString("app.url")
	cfg.App.FrontendURL = viper.GetString("app.frontend_url")

	// Server
	cfg.Server.Host = viper.GetString("server.host")
	cfg.Server.Port = viper.GetInt("server.port")
	cfg.Server.ReadTimeout = viper.GetDuration("server.read_timeout")
	cfg.Server.WriteTimeout = viper.GetDuration("server.write_timeout")
	cfg.Server.IdleTimeout = viper.GetDuration("server.idle_timeout")
	cfg.Server.ServiceToken = viper.GetString("server.service_token")

	// Database
	cfg.Database.Host = viper.GetString("database.host")
	cfg.Database.Port = viper.GetInt("database.port")
	cfg.Database.User = viper.GetString("database.user")
	cfg.Database.Password = viper.GetString("database.password")
	cfg.Database.Name = viper.GetString("database.name")
	cfg.Database.SSLMode = viper.GetString("database.sslmode")
	cfg.Database.MaxOpenConns = viper.GetInt("database.max_open_conns")
	cfg.Database.MaxIdleConns = viper.GetInt("database.max_idle_conns")
	cfg.Database.ConnMaxLifetime = viper.GetDuration("database.conn_max_lifetime")

	// Redis
	cfg.Redis.Host = viper.GetString("redis.host")
	cfg.Redis.Port = viper.GetInt("redis.port")
	cfg.Redis.Password = viper.GetString("redis.password")
	cfg.Redis.DB = viper.GetInt("redis.db")

	// SMTP
	cfg.SMTP.Host = viper.GetString("smtp.host")
	cfg.SMTP.Port = viper.GetInt("smtp.port")
	cfg.SMTP.Username = viper.GetString("smtp.username")
	cfg.SMTP.Password = viper.GetString("smtp.password")
	cfg.SMTP.From = viper.GetString("smtp.from")
	cfg.SMTP.FromName = viper.GetString("smtp.from_name")

	// Generation Service
	cfg.Generation.WebhookURL = viper.GetString("generation.webhook_url")
	cfg.Generation.Token = viper.GetString("generation.token")
	cfg.Generation.Timeout = viper.GetDuration("generation.timeout")
	cfg.Generation.CallsPerMin = viper.GetInt("generation.calls_per_minute")

	// Renderer
	cfg.Renderer.WebhookURL = viper.GetString("renderer.webhook_url")
	cfg.Renderer.Token = viper.GetString("renderer.token")
	cfg.Renderer.Timeout = viper.GetDuration("renderer.timeout")

	// Dispatch
	cfg.Dispatch.ReportBatchSize = viper.GetInt("dispatch.report_batch_size")
	cfg.Dispatch.TaskBatchSize = viper.GetInt("dispatch.task_batch_size")
	cfg.Dispatch.TaskLookahead = viper.GetDuration("dispatch.task_lookahead")
	cfg.Dispatch.ClaimLease = viper.GetDuration("dispatch.claim_lease")
	cfg.Dispatch.StaleExecution = viper.GetDuration("dispatch.stale_execution")
	cfg.Dispatch.RetentionDays = viper.GetInt("dispatch.retention_days")
	cfg.Dispatch.TaskFailurePolicy = viper.GetString("dispatch.task_failure_policy")
	cfg.Dispatch.PollEnabled = viper.GetBool("dispatch.poll_enabled")
	cfg.Dispatch.PollInterval = viper.GetDuration("dispatch.poll_interval")
	cfg.Dispatch.LeaderKey = viper.GetString("dispatch.leader_key")
	cfg.Dispatch.LeaderTTL = viper.GetDuration("dispatch.leader_ttl")

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "rocket-dispatch")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.url", "http://localhost:8080")
	viper.SetDefault("app.frontend_url", "http://localhost:3000")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	// Trigger runs pace generation calls, a batch can take minutes.
	viper.SetDefault("server.write_timeout", "10m")
	viper.SetDefault("server.idle_timeout", "60s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "rocketdispatch")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// SMTP defaults
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from_name", "RocketHub")

	// Generation defaults
	viper.SetDefault("generation.timeout", "120s")
	viper.SetDefault("generation.calls_per_minute", 4)

	// Renderer defaults
	viper.SetDefault("renderer.timeout", "60s")

	// Dispatch defaults
	viper.SetDefault("dispatch.report_batch_size", 10)
	viper.SetDefault("dispatch.task_batch_size", 50)
	viper.SetDefault("dispatch.task_lookahead", "2m")
	viper.SetDefault("dispatch.claim_lease", "5m")
	viper.SetDefault("dispatch.stale_execution", "10m")
	viper.SetDefault("dispatch.retention_days", 30)
	viper.SetDefault("dispatch.task_failure_policy", "skip_slot")
	viper.SetDefault("dispatch.poll_enabled", false)
	viper.SetDefault("dispatch.poll_interval", "1m")
	viper.SetDefault("dispatch.leader_key", "dispatch:leader")
	viper.SetDefault("dispatch.leader_ttl", "30s")
}
