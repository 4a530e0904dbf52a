package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9090"
  tick_interval: 50ms
redis:
  addr: localhost:6379
  ttl: 5m
quiz:
  bank_id: p5
  bank_files:
    p5: banks/p5.csv
  question_count: 5
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Quiz.BankID != "p5" || cfg.Quiz.BankFiles["p5"] != "banks/p5.csv" {
		t.Fatalf("unexpected quiz section %+v", cfg.Quiz)
	}
	if cfg.QuestionCount() != 5 {
		t.Fatalf("expected 5 questions, got %d", cfg.QuestionCount())
	}
	if d := TTLDuration(cfg.Server.TickInterval, DefaultTickInterval); d != 50*time.Millisecond {
		t.Fatalf("expected 50ms tick, got %v", d)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected missing file tolerated, got %v", err)
	}
	if cfg.QuestionCount() != DefaultQuestionCount {
		t.Fatalf("expected default count, got %d", cfg.QuestionCount())
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("server: [unclosed"), 0o600)
	if _, err := LoadOrDefault(bad); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestTTLDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{raw: "", want: time.Minute},
		{raw: "garbage", want: time.Minute},
		{raw: "90s", want: 90 * time.Second},
	}
	for _, tc := range tests {
		if got := TTLDuration(tc.raw, time.Minute); got != tc.want {
			t.Fatalf("TTLDuration(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
