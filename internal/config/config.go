package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is statdeck's runtime configuration.
type Config struct {
	APIURL      string `toml:"api_url" validate:"required,http_url"`
	CacheDir    string `toml:"cache_dir"`
	PollSeconds int    `toml:"poll_seconds" validate:"gte=5,lte=3600"`
	LogFile     string `toml:"log_file" validate:"required"`
	LogLevel    string `toml:"log_level" validate:"oneof=trace debug info warn error"`
	MetricsAddr string `toml:"metrics_addr" validate:"omitempty,hostname_port"`
	UserAgent   string `toml:"user_agent"`
}

const (
	defaultConfigPath  = "~/.config/statdeck/config.toml"
	defaultAPIURL      = "http://127.0.0.1:8080/api"
	defaultCacheDir    = "~/.cache/statdeck"
	defaultLogFile     = "~/.local/state/statdeck/statdeck.log"
	defaultLogLevel    = "info"
	defaultPollSeconds = 60
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:      defaultAPIURL,
		CacheDir:    mustExpand(defaultCacheDir),
		PollSeconds: defaultPollSeconds,
		LogFile:     mustExpand(defaultLogFile),
		LogLevel:    defaultLogLevel,
	}
}

// Load locates and parses the config file, falling back to defaults when it
// is missing. Unset or blank fields keep their defaults, except cache_dir
// where an explicit empty string disables the durable cache.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL      string  `toml:"api_url"`
		CacheDir    *string `toml:"cache_dir"`
		PollSeconds int     `toml:"poll_seconds"`
		LogFile     string  `toml:"log_file"`
		LogLevel    string  `toml:"log_level"`
		MetricsAddr string  `toml:"metrics_addr"`
		UserAgent   string  `toml:"user_agent"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if raw.CacheDir != nil {
		cfg.CacheDir = ""
		if v := strings.TrimSpace(*raw.CacheDir); v != "" {
			cfg.CacheDir = mustExpand(v)
		}
	}
	if raw.PollSeconds != 0 {
		cfg.PollSeconds = raw.PollSeconds
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	cfg.UserAgent = strings.TrimSpace(raw.UserAgent)

	return cfg, nil
}

// PollInterval is PollSeconds as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// PersistCache reports whether the durable cache is enabled.
func (c Config) PersistCache() bool {
	return strings.TrimSpace(c.CacheDir) != ""
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks field constraints and reports every violation.
func (c Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "http_url":
		return fmt.Sprintf("%s must be an http(s) URL, got %q", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
