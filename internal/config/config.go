package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// адрес HTTP-сервера
	ServerAddress string `yaml:"server_address" env:"SERVER_ADDRESS"`
	// базовый URL для CLI-клиента
	BaseURL        string `yaml:"base_url" env:"BASE_URL"`
	DatabaseDriver string `yaml:"database_driver" env:"DATABASE_DRIVER"`
	DatabasePath   string `yaml:"database_path" env:"DATABASE_PATH"`
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_TOKEN"`
	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL"`
}

func Default() Config {
	return Config{
		ServerAddress:  ":5000",
		DatabaseDriver: "sqlite",
		DatabasePath:   "./data/students.db",
		LogLevel:       "info",
	}
}

// Load порядок: значения по умолчанию -> YAML-файл (если задан) -> переменные окружения.
// Флаги командной строки накладываются поверх в cmd.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TRACKER_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("ошибка чтения конфига %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("ошибка разбора конфига %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("ошибка чтения окружения: %w", err)
	}

	cfg.fillBaseURL()
	return cfg, cfg.Validate()
}

func (c *Config) fillBaseURL() {
	if c.BaseURL != "" {
		return
	}
	addr := c.ServerAddress
	host, port, found := strings.Cut(addr, ":")
	if !found {
		port = addr
		host = ""
	}
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	if port == "" {
		port = "5000"
	}
	c.BaseURL = fmt.Sprintf("http://%s:%s", host, port)
}

// SetServerAddress используется флагом --addr; пересчитывает BaseURL, если он выводился из адреса
func (c *Config) SetServerAddress(addr string, baseURLExplicit bool) {
	c.ServerAddress = addr
	if !baseURLExplicit {
		c.BaseURL = ""
		c.fillBaseURL()
	}
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "sqlite3", "memory":
	default:
		return fmt.Errorf("неизвестный драйвер БД %q (sqlite|sqlite3|memory)", c.DatabaseDriver)
	}
	if c.DatabaseDriver != "memory" && c.DatabasePath == "" {
		return errors.New("не задан путь к БД")
	}
	return nil
}
