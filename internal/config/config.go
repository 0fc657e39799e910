package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	JWTTTL      time.Duration
	ClientURL   string
	LogLevel    string

	EventLocation            *time.Location
	CountdownInProgress      time.Duration
	CountdownReportScheduled bool
	NoticeWindow             time.Duration
}

// Load reads .env.local or .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:        withDefault(getenv("PORT"), "8080"),
		DatabaseURL: getenv("DATABASE_URL"),
		RedisURL:    getenv("REDIS_URL"),
		JWTSecret:   getenv("JWT_SECRET"),
		ClientURL:   withDefault(getenv("CLIENT_URL"), "http://localhost:3000"),
		LogLevel:    withDefault(getenv("LOG_LEVEL"), "info"),
	}

	var errs []error
	for name, v := range map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_URL":    cfg.RedisURL,
		"JWT_SECRET":   cfg.JWTSecret,
	} {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is not set", name))
		}
	}

	var err error
	if cfg.JWTTTL, err = duration(getenv, "JWT_TTL", 24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.CountdownInProgress, err = duration(getenv, "COUNTDOWN_INPROGRESS_WINDOW", 2*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.NoticeWindow, err = duration(getenv, "NOTICE_WINDOW", 24*time.Hour); err != nil {
		errs = append(errs, err)
	}

	cfg.CountdownReportScheduled = true
	if v := getenv("COUNTDOWN_REPORT_SCHEDULED"); v != "" {
		if cfg.CountdownReportScheduled, err = strconv.ParseBool(v); err != nil {
			errs = append(errs, fmt.Errorf("COUNTDOWN_REPORT_SCHEDULED: %w", err))
		}
	}

	cfg.EventLocation = time.Local
	if tz := getenv("EVENT_TIMEZONE"); tz != "" {
		if cfg.EventLocation, err = time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("EVENT_TIMEZONE: %w", err))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func duration(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
