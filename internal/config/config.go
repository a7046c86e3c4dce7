// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Watch  WatchConfig
	Render RenderConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// WatchConfig holds filesystem watch configuration.
type WatchConfig struct {
	// Paths are the directory trees to observe. At least one is required.
	Paths []string
	// Duration is how long to observe before shutting down. Zero means
	// run until interrupted.
	Duration time.Duration
}

// RenderConfig holds event output configuration.
type RenderConfig struct {
	// Format selects the event output encoding: text or json.
	Format string
	// WithSession prefixes every rendered event with the session id.
	WithSession bool
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	watchPaths := flag.String("watch-path", "", "Comma-separated directory trees to watch")
	duration := flag.String("duration", "", "How long to watch before exiting (e.g., 30s; default: until interrupted)")
	format := flag.String("format", "", "Event output format (text, json; default: text)")
	withSession := flag.String("with-session", "", "Prefix events with the session id (default: false)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags. The default flag set exits the program on a malformed flag.
	flag.Parse()

	// Load .env file if it exists. Any error, including a missing file or a
	// malformed line, is ignored.
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: resolve(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: resolve(*logLevel, "LOG_LEVEL", "info"),
		},
		Watch: WatchConfig{
			Paths: splitPaths(resolve(*watchPaths, "WATCH_PATH", "")),
		},
		Render: RenderConfig{
			Format:      resolve(*format, "EVENT_FORMAT", "text"),
			WithSession: resolveBool(*withSession, "EVENT_WITH_SESSION", false),
		},
	}

	// Positional arguments are additional watch paths.
	cfg.Watch.Paths = append(cfg.Watch.Paths, flag.Args()...)

	// Parse watch duration.
	durationStr := resolve(*duration, "WATCH_DURATION", "0s")
	watchDuration, err := time.ParseDuration(durationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid watch duration %q: %w", durationStr, err)
	}
	cfg.Watch.Duration = watchDuration

	// Expand and validate watch paths.
	if err := cfg.expandWatchPaths(); err != nil {
		return nil, fmt.Errorf("invalid watch path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if len(c.Watch.Paths) == 0 {
		return errors.New("at least one watch path is required")
	}

	if c.Watch.Duration < 0 {
		return fmt.Errorf("watch duration must not be negative: %s", c.Watch.Duration)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[strings.ToLower(c.Render.Format)] {
		return fmt.Errorf("invalid event format: %s (must be text or json)", c.Render.Format)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandWatchPaths expands ~ and makes every watch path absolute.
func (c *Config) expandWatchPaths() error {
	for i, p := range c.Watch.Paths {
		expanded, err := expandPath(p, "")
		if err != nil {
			return err
		}
		c.Watch.Paths[i] = expanded
	}
	return nil
}

// splitPaths splits a comma-separated path list, dropping empty entries.
func splitPaths(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolve returns the effective value for one setting: the flag wins,
// then the environment, then the fallback.
func resolve(flagValue, envKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}

// resolveBool reads a boolean setting. "true", "1", and "yes" count as
// true regardless of case; any other non-empty value is false.
func resolveBool(flagValue, envKey string, fallback bool) bool {
	v := resolve(flagValue, envKey, "")
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// loadEnvFile reads KEY=value lines from path into the process
// environment. Keys already set in the environment are left alone, so
// real environment variables outrank the file. Blank lines and
// #-comments are skipped; single or double quotes around a value are
// stripped.
func loadEnvFile(path string) error {
	f, err := os.Open(path) //#nosec G304 -- the .env location comes from a flag
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("line %d is not KEY=value: %s", n, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s from %s: %w", key, path, err)
		}
	}

	return sc.Err()
}
