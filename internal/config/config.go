// config - источник загрузки конфигурации клиента Controlaê.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
//
// Перед чтением переменных окружения подгружается .env из рабочей директории
// (если он есть); уже заданные переменные окружения не перетираются.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Бэкенды хранения сессии.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig     `yaml:"api"`
	Session  SessionConfig `yaml:"session"`
	Limits   LimitsConfig  `yaml:"limits"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// APIConfig — адрес REST API (origin + префикс /api).
type APIConfig struct {
	BaseURL   string `yaml:"base_url"   env:"API_BASE_URL"   env-default:"http://localhost:8000/api"`
	UserAgent string `yaml:"user_agent" env:"API_USER_AGENT" env-default:"controlae-cli"`
}

// TimeoutConfig — таймаут одного исходящего запроса (включая refresh и повтор).
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"30s"`
}

// SessionConfig — где живёт пара токенов и прочее клиентское состояние.
type SessionConfig struct {
	Backend     string `yaml:"backend"      env:"SESSION_BACKEND"      env-default:"file"`
	Path        string `yaml:"path"         env:"SESSION_PATH"`
	RedisURL    string `yaml:"redis_url"    env:"SESSION_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"SESSION_REDIS_PREFIX" env-default:"controlae:session:"`
	Profile     string `yaml:"profile"      env:"SESSION_PROFILE"      env-default:"default"`
}

// FilePath возвращает путь файла сессии: явный Path или
// <UserConfigDir>/controlae/<profile>.json.
func (s SessionConfig) FilePath() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config.SessionConfig.FilePath: %w", err)
	}

	return filepath.Join(dir, "controlae", s.Profile+".json"), nil
}

// LimitsConfig — ограничение частоты исходящих запросов. RPS <= 0 — без ограничения.
type LimitsConfig struct {
	RPS   float64 `yaml:"rps"   env:"RATE_LIMIT_RPS"   env-default:"0"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"1"`
}

// MetricsConfig — выгрузка метрик клиента в textfile (формат Prometheus)
// по завершении команды. Пустой путь — выгрузка выключена.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" env:"METRICS_TEXTFILE"`
}

// Validate проверяет согласованность значений после загрузки.
func (c *Config) Validate() error {
	const op = "config.Validate"

	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("%s: api.base_url: %w", op, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: api.base_url must be an absolute http(s) URL, got %q", op, c.API.BaseURL)
	}

	switch c.Session.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("%s: session.redis_url is required for redis backend", op)
		}
	default:
		return fmt.Errorf("%s: unknown session backend %q", op, c.Session.Backend)
	}

	if c.Timeouts.Request < 0 {
		return fmt.Errorf("%s: timeouts.request must be >= 0", op)
	}

	if c.Limits.RPS > 0 && c.Limits.Burst < 1 {
		return fmt.Errorf("%s: limits.burst must be >= 1 when rps is set", op)
	}

	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	return nil
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла поверх накладываются ENV-переменные, затем Validate.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv подгружает .env; отсутствие файла ошибкой не считается.
func loadDotEnv(p string) error {
	if err := godotenv.Load(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("failed to load %s: %w", p, err)
	}

	return nil
}
