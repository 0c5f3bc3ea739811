package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config настройки сервиса; файл опционален, переменные окружения
// перекрывают значения из файла
type Config struct {
	ListenAddr  string        `yaml:"listen_addr"`
	BackendURL  string        `yaml:"backend_url"`
	Timeout     time.Duration `yaml:"timeout"`
	RedisURL    string        `yaml:"redis_url"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	DeliveryFee float64       `yaml:"delivery_fee"`
}

func Default() *Config {
	return &Config{
		ListenAddr:  ":9091",
		BackendURL:  "https://natarajwebapi.catchus.in",
		Timeout:     10 * time.Second,
		SessionTTL:  720 * time.Hour,
		DeliveryFee: 29,
	}
}

// Load читает YAML-файл (если задан) и применяет окружение
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if v := os.Getenv("MITHAI_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("MITHAI_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("MITHAI_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("MITHAI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MITHAI_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("MITHAI_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MITHAI_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("MITHAI_DELIVERY_FEE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MITHAI_DELIVERY_FEE: %w", err)
		}
		cfg.DeliveryFee = f
	}
	return cfg, nil
}
