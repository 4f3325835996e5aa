// Package config содержит логику чтения конфигурации сервиса.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит конфигурацию приложения
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`  // Адрес и порт запуска сервиса
	DatabaseURI string `env:"DATABASE_URI"` // URI подключения к БД
	LogLevel    string `env:"LOG_LEVEL"`    // Уровень логирования

	// JWT секрет только из env, не из флагов
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTTokenTTL time.Duration `env:"JWT_TOKEN_TTL"`

	// BotToken используется для проверки подписи init-data витрины
	BotToken string `env:"BOT_TOKEN"`
	// AllowInsecureAuth разрешает идентификацию по заголовку X-Account-ID
	// без подписи (только для разработки)
	AllowInsecureAuth bool `env:"ALLOW_INSECURE_AUTH"`

	// DirectorID — единственный неизменяемый директор, закрепляется при старте
	DirectorID int64 `env:"DIRECTOR_ID"`
	// WelcomeBonus начисляется при первой регистрации аккаунта
	WelcomeBonus int64 `env:"WELCOME_BONUS"`

	// Диспетчер уведомлений
	NotifierWorkers   int `env:"NOTIFIER_WORKERS"`
	NotifierQueueSize int `env:"NOTIFIER_QUEUE_SIZE"`
}

// Load загружает конфигурацию из флагов командной строки и переменных
// окружения. Приоритет: env переменные > флаги > дефолтные значения.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:          "info",
		JWTSecret:         "default-secret-key-change-in-production",
		JWTTokenTTL:       24 * time.Hour,
		WelcomeBonus:      500,
		NotifierWorkers:   3,
		NotifierQueueSize: 100,
	}

	flag.StringVar(&cfg.RunAddress, "a", ":8080", "address and port to run server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.Int64Var(&cfg.DirectorID, "director", 0, "director account id")
	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURI == "" {
		return fmt.Errorf("database URI is required (use -d flag or DATABASE_URI env)")
	}
	if c.DirectorID == 0 {
		return fmt.Errorf("director ID is required (use -director flag or DIRECTOR_ID env)")
	}
	if c.WelcomeBonus < 0 {
		return fmt.Errorf("welcome bonus must not be negative")
	}
	if c.NotifierWorkers <= 0 || c.NotifierQueueSize <= 0 {
		return fmt.Errorf("notifier workers and queue size must be positive")
	}
	return nil
}
