package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	defaultListenAddr  = ":8080"
	defaultDBPath      = "hivegrid.db"
	defaultTaskType    = "static"
	defaultReward      = 0.0
	defaultMaxUnits    = 0
	defaultDestination = "http://localhost:3000"

	envListenAddr  = "HIVEGRID_LISTEN_ADDR"
	envDBPath      = "HIVEGRID_DB_PATH"
	envLogLevel    = "HIVEGRID_LOG_LEVEL"
	envTaskType    = "HIVEGRID_TASK_TYPE"
	envTaskData    = "HIVEGRID_TASK_DATA"
	envTaskReward  = "HIVEGRID_TASK_REWARD"
	envMaxUnits    = "HIVEGRID_MAX_UNITS"
	envDestination = "HIVEGRID_DESTINATION"
	envSandbox     = "HIVEGRID_SANDBOX"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr  string
	DBPath      string
	LogLevel    slog.Level
	TaskType    string
	TaskData    string
	TaskReward  float64
	MaxUnits    int
	Destination string
	Sandbox     bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:  defaultListenAddr,
		DBPath:      defaultDBPath,
		LogLevel:    slog.LevelInfo,
		TaskType:    defaultTaskType,
		TaskReward:  defaultReward,
		MaxUnits:    defaultMaxUnits,
		Destination: defaultDestination,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envTaskType); v != "" {
		cfg.TaskType = v
	}
	if v := os.Getenv(envTaskData); v != "" {
		cfg.TaskData = v
	}
	if v := os.Getenv(envTaskReward); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.TaskReward = f
		}
	}
	if v := os.Getenv(envMaxUnits); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxUnits = n
		}
	}
	if v := os.Getenv(envDestination); v != "" {
		cfg.Destination = v
	}
	if v := os.Getenv(envSandbox); v != "" {
		cfg.Sandbox = strings.EqualFold(v, "true") || v == "1"
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
