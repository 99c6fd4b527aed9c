package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env        string           `yaml:"env"`
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	Bot        BotConfig        `yaml:"bot"`
	Submission SubmissionConfig `yaml:"submission"`
}

// HTTPConfig configures the stats API. An empty Addr disables it.
type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// PostgresConfig enables the decision journal when DSN is set.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig moves the submission cooldown to Redis when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type BotConfig struct {
	Token string `yaml:"token"`
	// ReviewGroupID is the moderation group chat id.
	ReviewGroupID int64 `yaml:"review_group_id"`
	// TargetChannel is a numeric channel id or an @username.
	TargetChannel      string        `yaml:"target_channel"`
	PollTimeoutSeconds int           `yaml:"poll_timeout_seconds"`
	CleanupInterval    time.Duration `yaml:"cleanup_interval"`
}

type SubmissionConfig struct {
	Cooldown   time.Duration `yaml:"cooldown"`
	PendingTTL time.Duration `yaml:"pending_ttl"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:         "",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Bot: BotConfig{
			PollTimeoutSeconds: 30,
			CleanupInterval:    10 * time.Minute,
		},
		Submission: SubmissionConfig{
			Cooldown:   600 * time.Second,
			PendingTTL: 24 * time.Hour,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks what the relay bot cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return fmt.Errorf("bot token is required (BOT_TOKEN)")
	}
	if c.Bot.ReviewGroupID == 0 {
		return fmt.Errorf("review group id is required (REVIEW_GROUP_ID)")
	}
	if strings.TrimSpace(c.Bot.TargetChannel) == "" {
		return fmt.Errorf("target channel is required (TARGET_CHANNEL_ID)")
	}
	if c.Submission.Cooldown < 0 {
		return fmt.Errorf("submission cooldown must not be negative")
	}
	if c.Submission.PendingTTL < 0 {
		return fmt.Errorf("pending ttl must not be negative")
	}
	if c.Bot.PollTimeoutSeconds < 0 {
		return fmt.Errorf("poll timeout must not be negative")
	}
	return nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if err := overrideInt64("REVIEW_GROUP_ID", &cfg.Bot.ReviewGroupID); err != nil {
		return err
	}
	if v := os.Getenv("TARGET_CHANNEL_ID"); v != "" {
		cfg.Bot.TargetChannel = strings.TrimSpace(v)
	}
	if err := overrideInt("POLL_TIMEOUT_SECONDS", &cfg.Bot.PollTimeoutSeconds); err != nil {
		return err
	}
	if err := overrideDuration("CLEANUP_INTERVAL", &cfg.Bot.CleanupInterval); err != nil {
		return err
	}

	if err := overrideDuration("SUBMISSION_COOLDOWN", &cfg.Submission.Cooldown); err != nil {
		return err
	}
	if err := overrideDuration("PENDING_TTL", &cfg.Submission.PendingTTL); err != nil {
		return err
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideInt64(key string, target *int64) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s int64: %w", key, err)
	}
	*target = n
	return nil
}
