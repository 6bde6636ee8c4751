package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	HTTPAddr       string
	Environment    string
	MigrationsPath string

	// Часовой пояс студии: все расчёты расписания идут в нём
	StudioTimezone string

	// Внешний календарь. Если URL или токен пустые,
	// синхронизация переходит в состояние NotConfigured.
	CalendarAPIURL   string
	CalendarAPIToken string

	// Интервалы фоновых задач
	CalendarSyncInterval time.Duration
	DailySweepHour       int // Час запуска ежедневных задач, 0-23
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:            os.Getenv("DB_DSN"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Environment:      getEnv("ENV", "development"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "migrations"),
		StudioTimezone:   getEnv("STUDIO_TIMEZONE", "Europe/Moscow"),
		CalendarAPIURL:   os.Getenv("CALENDAR_API_URL"),
		CalendarAPIToken: os.Getenv("CALENDAR_API_TOKEN"),
	}

	interval, err := getEnvInt("CALENDAR_SYNC_INTERVAL_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.CalendarSyncInterval = time.Duration(interval) * time.Minute

	cfg.DailySweepHour, err = getEnvInt("DAILY_SWEEP_HOUR", 3)
	if err != nil {
		return nil, err
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

// CalendarConfigured сообщает, заданы ли реквизиты внешнего календаря
func (c *Config) CalendarConfigured() bool {
	return c.CalendarAPIURL != "" && c.CalendarAPIToken != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
