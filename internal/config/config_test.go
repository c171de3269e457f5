package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Scheduler.CronExpression != "0 */5 * * *" {
		t.Fatalf("unexpected cron expression: %s", cfg.Scheduler.CronExpression)
	}
	if cfg.Source.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Source.MaxAttempts)
	}
	if cfg.Scheduler.InterConfigDelay() != 5*time.Second {
		t.Fatalf("unexpected inter-config delay: %v", cfg.Scheduler.InterConfigDelay())
	}
	if len(cfg.Source.Origins) == 0 {
		t.Fatal("expected default origins")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	raw := `
scheduler:
  cronExpression: "0 */2 * * *"
  timezone: "Asia/Tokyo"
source:
  maxAttempts: 2
  offlineFallback: true
  origins:
    - name: "Example"
      feed: "https://example.test/rss.xml"
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env:env@db:5432/envdb")
	t.Setenv(openAIAPIKeyEnv, "sk-test")

	cfg := Load()

	if cfg.Scheduler.CronExpression != "0 */2 * * *" {
		t.Fatalf("file override not applied: %s", cfg.Scheduler.CronExpression)
	}
	if cfg.Scheduler.Location().String() != "Asia/Tokyo" {
		t.Fatalf("timezone not bound: %s", cfg.Scheduler.Location())
	}
	if cfg.Source.MaxAttempts != 2 {
		t.Fatalf("max attempts override not applied: %d", cfg.Source.MaxAttempts)
	}
	if !cfg.Source.OfflineFallback {
		t.Fatal("offline fallback override not applied")
	}
	if len(cfg.Source.Origins) != 1 || cfg.Source.Origins[0].Name != "Example" {
		t.Fatalf("origin override not applied: %+v", cfg.Source.Origins)
	}
	if cfg.Database.DSN != "postgres://env:env@db:5432/envdb" {
		t.Fatalf("env override not applied: %s", cfg.Database.DSN)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.Image.APIKey != "sk-test" {
		t.Fatal("api key env override not applied to both clients")
	}
}
