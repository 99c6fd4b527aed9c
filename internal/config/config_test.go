package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
bot:
  review_group_id: -1001234
  target_channel: "@relay_channel"
submission:
  cooldown: 5m
http:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Bot.ReviewGroupID != -1001234 {
		t.Fatalf("unexpected review group id: %d", cfg.Bot.ReviewGroupID)
	}
	if cfg.Bot.TargetChannel != "@relay_channel" {
		t.Fatalf("unexpected target channel: %s", cfg.Bot.TargetChannel)
	}
	if cfg.Submission.Cooldown != 5*time.Minute {
		t.Fatalf("unexpected cooldown: %s", cfg.Submission.Cooldown)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}

	if cfg.Submission.PendingTTL != 24*time.Hour {
		t.Fatalf("pending_ttl default should stay 24h, got %s", cfg.Submission.PendingTTL)
	}
	if cfg.Bot.PollTimeoutSeconds != 30 {
		t.Fatalf("poll timeout default should stay 30, got %d", cfg.Bot.PollTimeoutSeconds)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Submission.Cooldown != 600*time.Second {
		t.Fatalf("unexpected default cooldown: %s", cfg.Submission.Cooldown)
	}
	if cfg.HTTP.Addr != "" || cfg.Redis.Addr != "" || cfg.Postgres.DSN != "" {
		t.Fatalf("optional backends must be disabled by default: %+v", cfg)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("unexpected log level default: %s", cfg.Log.Level)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("defaults without token must not validate")
	}
}

func TestEnvOverridesWinOverYAML(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bot:\n  token: from-yaml\n  review_group_id: 1\n"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("REVIEW_GROUP_ID", "-100777")
	t.Setenv("TARGET_CHANNEL_ID", " -100888 ")
	t.Setenv("SUBMISSION_COOLDOWN", "30s")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Bot.Token != "from-env" || cfg.Bot.ReviewGroupID != -100777 || cfg.Bot.TargetChannel != "-100888" {
		t.Fatalf("unexpected bot config: %+v", cfg.Bot)
	}
	if cfg.Submission.Cooldown != 30*time.Second || cfg.Redis.DB != 3 {
		t.Fatalf("unexpected overrides: cooldown=%s redis_db=%d", cfg.Submission.Cooldown, cfg.Redis.DB)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("REVIEW_GROUP_ID", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed REVIEW_GROUP_ID")
	}

	t.Setenv("REVIEW_GROUP_ID", "")
	t.Setenv("PENDING_TTL", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed PENDING_TTL")
	}
}

func TestValidateRequiresRelaySettings(t *testing.T) {
	cfg := Default()
	cfg.Bot.Token = "token"
	cfg.Bot.ReviewGroupID = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing target channel error")
	}

	cfg.Bot.TargetChannel = "@channel"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.Submission.Cooldown = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected negative cooldown error")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"BOT_TOKEN",
		"REVIEW_GROUP_ID",
		"TARGET_CHANNEL_ID",
		"POLL_TIMEOUT_SECONDS",
		"CLEANUP_INTERVAL",
		"SUBMISSION_COOLDOWN",
		"PENDING_TTL",
	} {
		t.Setenv(key, "")
	}
}
