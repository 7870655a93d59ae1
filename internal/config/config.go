package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pomodoro/focus/internal/model"
)

const (
	CountFromSessionLog = "session_log"
	CountFromThresholds = "threshold"

	minMinutes = 1
	maxMinutes = 60
)

type Config struct {
	Port        string
	DBPath      string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	LogLevel string
	LogFile  string

	FocusMinutes       int
	ShortBreakMinutes  int
	LongBreakMinutes   int
	CyclesPerLongBreak int
	CountStrategy      string
	Bell               bool
}

type fileConfig struct {
	Port               string   `yaml:"port"`
	DBPath             string   `yaml:"db_path"`
	CORSOrigins        []string `yaml:"cors_origins"`
	LogLevel           string   `yaml:"log_level"`
	LogFile            string   `yaml:"log_file"`
	FocusMinutes       int      `yaml:"focus_minutes"`
	ShortBreakMinutes  int      `yaml:"short_break_minutes"`
	LongBreakMinutes   int      `yaml:"long_break_minutes"`
	CyclesPerLongBreak int      `yaml:"cycles_per_long_break"`
	CountStrategy      string   `yaml:"count_strategy"`
	Bell               *bool    `yaml:"bell"`
}

func defaults() Config {
	return Config{
		Port:               "8080",
		DBPath:             "./data/pomodoro.db",
		JWTSecret:          "change-this-secret",
		TokenTTL:           72 * time.Hour,
		CORSOrigins:        []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		LogLevel:           "info",
		FocusMinutes:       model.DefaultFocusDurationSeconds / 60,
		ShortBreakMinutes:  model.DefaultShortBreakDurationSeconds / 60,
		LongBreakMinutes:   model.DefaultLongBreakDurationSeconds / 60,
		CyclesPerLongBreak: model.DefaultCyclesPerLongBreak,
		CountStrategy:      CountFromSessionLog,
		Bell:               true,
	}
}

// Load reads the configuration from the environment only.
func Load() Config {
	cfg := defaults()
	applyEnv(&cfg)
	normalize(&cfg)
	return cfg
}

// LoadFile layers defaults, the YAML file at path and the environment, in
// that order. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		rawData, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config file: %w", err)
		default:
			var fileData fileConfig
			if err := yaml.Unmarshal(rawData, &fileData); err != nil {
				return cfg, fmt.Errorf("parse config yaml: %w", err)
			}
			applyFile(&cfg, fileData)
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

// Settings converts the configured minutes into timer durations.
func (c Config) Settings() model.Settings {
	return model.Settings{
		FocusSeconds:      c.FocusMinutes * 60,
		ShortBreakSeconds: c.ShortBreakMinutes * 60,
		LongBreakSeconds:  c.LongBreakMinutes * 60,
	}
}

func applyFile(cfg *Config, fileData fileConfig) {
	if fileData.Port != "" {
		cfg.Port = fileData.Port
	}
	if fileData.DBPath != "" {
		cfg.DBPath = fileData.DBPath
	}
	if len(fileData.CORSOrigins) > 0 {
		cfg.CORSOrigins = fileData.CORSOrigins
	}
	if fileData.LogLevel != "" {
		cfg.LogLevel = fileData.LogLevel
	}
	if fileData.LogFile != "" {
		cfg.LogFile = fileData.LogFile
	}
	if fileData.FocusMinutes > 0 {
		cfg.FocusMinutes = fileData.FocusMinutes
	}
	if fileData.ShortBreakMinutes > 0 {
		cfg.ShortBreakMinutes = fileData.ShortBreakMinutes
	}
	if fileData.LongBreakMinutes > 0 {
		cfg.LongBreakMinutes = fileData.LongBreakMinutes
	}
	if fileData.CyclesPerLongBreak > 0 {
		cfg.CyclesPerLongBreak = fileData.CyclesPerLongBreak
	}
	if fileData.CountStrategy != "" {
		cfg.CountStrategy = fileData.CountStrategy
	}
	if fileData.Bell != nil {
		cfg.Bell = *fileData.Bell
	}
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = time.Duration(getEnvInt("TOKEN_TTL_HOURS", int(cfg.TokenTTL/time.Hour))) * time.Hour
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.FocusMinutes = getEnvInt("FOCUS_MINUTES", cfg.FocusMinutes)
	cfg.ShortBreakMinutes = getEnvInt("SHORT_BREAK_MINUTES", cfg.ShortBreakMinutes)
	cfg.LongBreakMinutes = getEnvInt("LONG_BREAK_MINUTES", cfg.LongBreakMinutes)
	cfg.CyclesPerLongBreak = getEnvInt("CYCLES_PER_LONG_BREAK", cfg.CyclesPerLongBreak)
	cfg.CountStrategy = getEnv("COUNT_STRATEGY", cfg.CountStrategy)
	cfg.Bell = getEnvBool("BELL", cfg.Bell)
}

// normalize clamps phase lengths to 1..60 minutes.
func normalize(cfg *Config) {
	cfg.FocusMinutes = clamp(cfg.FocusMinutes, minMinutes, maxMinutes)
	cfg.ShortBreakMinutes = clamp(cfg.ShortBreakMinutes, minMinutes, maxMinutes)
	cfg.LongBreakMinutes = clamp(cfg.LongBreakMinutes, minMinutes, maxMinutes)
	if cfg.CyclesPerLongBreak <= 0 {
		cfg.CyclesPerLongBreak = model.DefaultCyclesPerLongBreak
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 72 * time.Hour
	}
	switch cfg.CountStrategy {
	case CountFromSessionLog, CountFromThresholds:
	default:
		cfg.CountStrategy = CountFromSessionLog
	}
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
