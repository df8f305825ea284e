package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	IrisBaseURL string `env:"IRIS_BASE_URL"`
	IrisWSURL   string `env:"IRIS_WS_URL"`

	BotPrefix string `env:"BOT_PREFIX"`

	XUserID    string `env:"X_USER_ID"`
	XUserEmail string `env:"X_USER_EMAIL"`
	XSessionID string `env:"X_SESSION_ID"`

	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	LeaderboardBackend    string        `env:"LEADERBOARD_BACKEND"     envDefault:"auto"`
	LeaderboardSQLitePath string        `env:"LEADERBOARD_SQLITE_PATH"`
	LeaderboardSize       int           `env:"LEADERBOARD_SIZE"        envDefault:"10"`
	LeaderboardCacheTTL   time.Duration `env:"LEADERBOARD_CACHE_TTL"   envDefault:"30s"`

	AllowedRooms []string `env:"ALLOWED_ROOMS" envSeparator:","`

	TotalOvers int    `env:"CRICKET_TOTAL_OVERS" envDefault:"1"`
	MaxWickets int    `env:"CRICKET_MAX_WICKETS" envDefault:"2"`
	Seed       int64  `env:"CRICKET_SEED"`
	CPUName    string `env:"CRICKET_CPU_NAME"    envDefault:"APEX AI"`

	// MatchIdleTimeout of zero keeps abandoned matches forever.
	MatchIdleTimeout   time.Duration `env:"MATCH_IDLE_TIMEOUT"   envDefault:"0s"`
	MatchSweepInterval time.Duration `env:"MATCH_SWEEP_INTERVAL"`

	EgressMode     string `env:"EGRESS_MODE"     envDefault:"auto"`
	EgressDryRun   bool   `env:"EGRESS_DRYRUN"`
	MessagesDir    string `env:"MESSAGES_DIR"`
	ScorecardImage bool   `env:"SCORECARD_IMAGE" envDefault:"true"`
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*AppConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return fmt.Errorf("env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (cfg *AppConfig) normalize() error {
	cfg.IrisBaseURL = strings.TrimSpace(cfg.IrisBaseURL)
	cfg.IrisWSURL = strings.TrimSpace(cfg.IrisWSURL)
	cfg.BotPrefix = strings.TrimSpace(cfg.BotPrefix)
	cfg.XUserID = strings.TrimSpace(cfg.XUserID)
	cfg.XUserEmail = strings.TrimSpace(cfg.XUserEmail)
	cfg.XSessionID = strings.TrimSpace(cfg.XSessionID)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.LeaderboardSQLitePath = strings.TrimSpace(cfg.LeaderboardSQLitePath)
	cfg.LeaderboardBackend = strings.ToLower(strings.TrimSpace(cfg.LeaderboardBackend))
	cfg.EgressMode = strings.ToLower(strings.TrimSpace(cfg.EgressMode))
	cfg.CPUName = strings.TrimSpace(cfg.CPUName)
	cfg.MessagesDir = strings.TrimSpace(cfg.MessagesDir)

	rooms := cfg.AllowedRooms[:0]
	for _, p := range cfg.AllowedRooms {
		if s := strings.TrimSpace(p); s != "" {
			rooms = append(rooms, s)
		}
	}
	cfg.AllowedRooms = rooms

	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 10
	}
	if cfg.CPUName == "" {
		cfg.CPUName = "APEX AI"
	}
	if cfg.LeaderboardBackend == "" {
		cfg.LeaderboardBackend = "auto"
	}
	if cfg.EgressMode == "" {
		cfg.EgressMode = "auto"
	}

	if cfg.IrisBaseURL == "" {
		return errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return errors.New("BOT_PREFIX is required")
	}
	switch cfg.LeaderboardBackend {
	case "auto", "memory", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("LEADERBOARD_BACKEND %q is not one of auto|memory|redis|postgres|sqlite", cfg.LeaderboardBackend)
	}
	if cfg.LeaderboardBackend == "redis" && cfg.RedisURL == "" {
		return errors.New("REDIS_URL is required for LEADERBOARD_BACKEND=redis")
	}
	if cfg.LeaderboardBackend == "postgres" && cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for LEADERBOARD_BACKEND=postgres")
	}
	if cfg.LeaderboardBackend == "sqlite" && cfg.LeaderboardSQLitePath == "" {
		cfg.LeaderboardSQLitePath = "data/cricket.db"
	}
	switch cfg.EgressMode {
	case "auto", "http", "ws":
	default:
		return fmt.Errorf("EGRESS_MODE %q is not one of auto|http|ws", cfg.EgressMode)
	}
	if cfg.TotalOvers < 1 {
		return errors.New("CRICKET_TOTAL_OVERS must be at least 1")
	}
	if cfg.MaxWickets < 1 {
		return errors.New("CRICKET_MAX_WICKETS must be at least 1")
	}
	if cfg.MatchIdleTimeout < 0 || cfg.MatchSweepInterval < 0 {
		return errors.New("MATCH_IDLE_TIMEOUT and MATCH_SWEEP_INTERVAL must not be negative")
	}
	return nil
}

// RoomAllowed reports whether room passes the ALLOWED_ROOMS filter. An empty list allows every room.
func (cfg *AppConfig) RoomAllowed(room string) bool {
	if len(cfg.AllowedRooms) == 0 {
		return true
	}
	room = strings.TrimSpace(room)
	for _, r := range cfg.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}
