package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ModerationAPIURL != "https://api.openai.com/v1/moderations" {
		t.Fatalf("unexpected moderation URL: %q", cfg.ModerationAPIURL)
	}
	if cfg.ModerationModel != "omni-moderation-latest" {
		t.Fatalf("unexpected moderation model: %q", cfg.ModerationModel)
	}
	if cfg.ModerationTimeout != 40*time.Second {
		t.Fatalf("unexpected moderation timeout: %v", cfg.ModerationTimeout)
	}
	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Fatalf("unexpected upload cap: %d", cfg.MaxUploadBytes)
	}
	if cfg.ReportRewardPoints != 10 {
		t.Fatalf("unexpected reward points: %d", cfg.ReportRewardPoints)
	}
	if !cfg.AllowAnonymousReport {
		t.Fatal("anonymous reporting should default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MODERATION_TIMEOUT", "10s")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("REPORT_REWARD_POINTS", "25")
	t.Setenv("ALLOW_ANONYMOUS_REPORTS", "false")

	cfg := Load()

	if cfg.ModerationTimeout != 10*time.Second {
		t.Fatalf("unexpected moderation timeout: %v", cfg.ModerationTimeout)
	}
	if cfg.MaxUploadBytes != 2*1024*1024 {
		t.Fatalf("unexpected upload cap: %d", cfg.MaxUploadBytes)
	}
	if cfg.ReportRewardPoints != 25 {
		t.Fatalf("unexpected reward points: %d", cfg.ReportRewardPoints)
	}
	if cfg.AllowAnonymousReport {
		t.Fatal("anonymous reporting should be disabled")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5433", DBUser: "app",
		DBPassword: "pw", DBName: "civic", DBSSLMode: "require",
	}
	want := "host=db user=app password=pw dbname=civic port=5433 sslmode=require TimeZone=UTC"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}
