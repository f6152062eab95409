package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Stock.Code != "139480" {
		t.Errorf("expected stock code '139480', got %q", cfg.Stock.Code)
	}
	if cfg.Crawl.PageDelay != time.Second {
		t.Errorf("expected page delay 1s, got %v", cfg.Crawl.PageDelay)
	}
	if cfg.Crawl.ContentDelay != 500*time.Millisecond {
		t.Errorf("expected content delay 500ms, got %v", cfg.Crawl.ContentDelay)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Schedule.Weekly != "0 22 * * 0" {
		t.Errorf("unexpected weekly schedule %q", cfg.Schedule.Weekly)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
stock:
  code: "005930"
crawl:
  max_pages: 3
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Stock.Code != "005930" {
		t.Errorf("expected stock code '005930', got %q", cfg.Stock.Code)
	}
	if cfg.Crawl.MaxPages != 3 {
		t.Errorf("expected max_pages 3, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Crawl.BaseURL != "https://finance.naver.com" {
		t.Errorf("expected default base_url, got %q", cfg.Crawl.BaseURL)
	}
	if cfg.Report.Timezone != "Asia/Seoul" {
		t.Errorf("expected default timezone, got %q", cfg.Report.Timezone)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	env := map[string]string{
		"STOCK_CODE":     "000660",
		"CRAWLING_DELAY": "2.5",
		"MAX_PAGES":      "4",
		"USER_AGENT":     "test-agent",
		"DATA_DIR":       "/tmp/sb",
	}
	if err := cfg.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}

	if cfg.Stock.Code != "000660" {
		t.Errorf("expected overridden stock code, got %q", cfg.Stock.Code)
	}
	if cfg.Crawl.PageDelay != 2500*time.Millisecond {
		t.Errorf("expected 2.5s delay, got %v", cfg.Crawl.PageDelay)
	}
	if cfg.Crawl.MaxPages != 4 {
		t.Errorf("expected max pages 4, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.UserAgent != "test-agent" {
		t.Errorf("expected user agent override, got %q", cfg.Crawl.UserAgent)
	}
	if cfg.GetDataDir() != "/tmp/sb" {
		t.Errorf("expected data dir override, got %q", cfg.GetDataDir())
	}
}

func TestApplyEnvInvalidNumber(t *testing.T) {
	cfg, _ := parse(DefaultConfigYAML)
	err := cfg.applyEnv(func(k string) string {
		if k == "MAX_PAGES" {
			return "many"
		}
		return ""
	})
	if err == nil {
		t.Error("expected error for non-numeric MAX_PAGES")
	}
}

func TestValidate(t *testing.T) {
	cfg, _ := parse(DefaultConfigYAML)
	cfg.Stock.Code = " "
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty stock code")
	}

	cfg, _ = parse(DefaultConfigYAML)
	cfg.Crawl.MaxPages = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative max_pages")
	}

	cfg, _ = parse(DefaultConfigYAML)
	cfg.Crawl.MaxPages = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("max_pages 0 probes the pager and should validate: %v", err)
	}

	cfg, _ = parse(DefaultConfigYAML)
	cfg.Report.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Stock.Code == "" {
		t.Error("expected stock code to be populated from file")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
