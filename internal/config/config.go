package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds the runtime configuration of the reader
type Settings struct {
	// Content is a local directory or an http(s) base URL holding the book
	Content string `yaml:"content"`
	Port    string `yaml:"port"`
	// StaticDir holds the reader shell served at /
	StaticDir string `yaml:"static_dir"`
	// ScanDirectory enables the directory listing strategy for local content
	ScanDirectory bool          `yaml:"scan_directory"`
	ProgressDelay time.Duration `yaml:"progress_delay"`
	SafeMode      bool          `yaml:"safe_mode"`
	// HardWraps renders single newlines inside paragraphs as <br>
	HardWraps bool   `yaml:"hard_wraps"`
	LogLevel  string `yaml:"log_level"`
}

// Defaults returns the built-in settings
func Defaults() Settings {
	return Settings{
		Content:       "./contents",
		Port:          "8888",
		StaticDir:     "static",
		ProgressDelay: 500 * time.Millisecond,
		LogLevel:      "info",
	}
}

// Load builds settings from defaults, then the optional YAML file at path,
// then environment variables
func Load(path string) (Settings, error) {
	settings := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return settings, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&settings)
	return settings, nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("READER_CONTENT"); v != "" {
		settings.Content = v
	}
	if v := os.Getenv("READER_PORT"); v != "" {
		settings.Port = v
	}
	if v := os.Getenv("READER_STATIC"); v != "" {
		settings.StaticDir = v
	}
	if v := os.Getenv("READER_SCAN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.ScanDirectory = b
		} else {
			slog.Warn("Ignoring invalid READER_SCAN", "value", v)
		}
	}
	if v := os.Getenv("READER_PROGRESS_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.ProgressDelay = d
		} else {
			slog.Warn("Ignoring invalid READER_PROGRESS_DELAY", "value", v)
		}
	}
	if v := os.Getenv("READER_HARD_WRAPS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.HardWraps = b
		} else {
			slog.Warn("Ignoring invalid READER_HARD_WRAPS", "value", v)
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		settings.LogLevel = v
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging installs a text slog handler on stderr at level
func SetupLogging(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(level)})
	slog.SetDefault(slog.New(handler))
}
