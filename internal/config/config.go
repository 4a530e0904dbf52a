package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultQuestionCount = 4
	DefaultTickInterval  = 100 * time.Millisecond
	DefaultBankTTL       = 10 * time.Minute
	DefaultSessionTTL    = 30 * time.Minute
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		TickInterval string `yaml:"tick_interval"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		BankID        string            `yaml:"bank_id"`
		BankFiles     map[string]string `yaml:"bank_files"`
		QuestionCount int               `yaml:"question_count"`
		TTL           string            `yaml:"ttl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, but a missing file yields the zero Config.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// QuestionCount returns the configured session size or the default.
func (c Config) QuestionCount() int {
	if c.Quiz.QuestionCount > 0 {
		return c.Quiz.QuestionCount
	}
	return DefaultQuestionCount
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
