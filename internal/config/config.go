// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zoneinfoを持たないイメージでもTIME_ZONEを解決できるようにする

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string
	DBMaxOpenConns int

	// Provisioning
	EmployeeSecret string

	// Server
	ServerPort string
	TimeZone   *time.Location

	// Logging
	LogLevel string

	// Auth flow
	AuthPollInterval    time.Duration
	AuthPollMaxTicks    int
	AuthStaleAfter      time.Duration
	AuthConfirmWindow   time.Duration
	AuthCleanupInterval time.Duration

	// Rate Limit（req/min/uid）
	RateLimitToggle int

	// CORS（空の場合は無効）
	CORSAllowedOrigin string
}

// LoadDotEnv はpathsの.envファイルを環境変数に読み込む。
// 既に設定済みの環境変数は上書きしない。ファイルが存在しない場合は何もしない。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、またはTIME_ZONEが解釈できない場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.EmployeeSecret = os.Getenv("EMPLOYEE_SECRET")
	if cfg.EmployeeSecret == "" {
		missing = append(missing, "EMPLOYEE_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	tzName := getEnvString("TIME_ZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", tzName, err)
	}
	cfg.TimeZone = loc

	cfg.ServerPort = getEnvString("SERVER_PORT", "8888")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.AuthPollInterval = getEnvDuration("AUTH_POLL_INTERVAL", time.Second)
	cfg.AuthPollMaxTicks = getEnvInt("AUTH_POLL_MAX_TICKS", 60)
	cfg.AuthStaleAfter = getEnvDuration("AUTH_STALE_AFTER", 60*time.Second)
	cfg.AuthConfirmWindow = getEnvDuration("AUTH_CONFIRM_WINDOW", 600*time.Second)
	cfg.AuthCleanupInterval = getEnvDuration("AUTH_CLEANUP_INTERVAL", 10*time.Minute)
	cfg.RateLimitToggle = getEnvInt("RATE_LIMIT_TOGGLE", 30)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
