// Package config loads haven's layered configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. HAVEN_API_URL.
const EnvPrefix = "HAVEN_"

// DefaultAPIURL is used when no file or environment sets api_url.
const DefaultAPIURL = "http://localhost:8000/api"

// Config is the resolved runtime configuration.
type Config struct {
	APIURL         string        `validate:"required,url"`
	TokenFile      string        `validate:"required"`
	PollInterval   time.Duration `validate:"gte=1s"`
	RequestTimeout time.Duration `validate:"gte=1s"`
	RateLimit      float64       `validate:"gte=0"`
	RateBurst      int           `validate:"gte=1"`
	RetryMax       int           `validate:"gte=0,lte=10"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
	LogFile        string
	PrettyLog      bool

	// Path is the config file that was read, empty if none.
	Path string `validate:"-"`
}

// Options points Load at non-default locations.
type Options struct {
	// ConfigPath overrides HAVEN_CONFIG and the XDG default.
	ConfigPath string
	// EnvFile is loaded with godotenv before env overrides are read.
	// Defaults to ".env"; a missing file is not an error.
	EnvFile string
}

var v = validator.New()

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	dir := HomeDir()
	return &Config{
		APIURL:         DefaultAPIURL,
		TokenFile:      filepath.Join(dir, "token"),
		PollInterval:   30 * time.Second,
		RequestTimeout: 30 * time.Second,
		RateLimit:      10,
		RateBurst:      20,
		RetryMax:       2,
		LogLevel:       "info",
		LogFile:        filepath.Join(dir, "haven.log"),
	}
}

// HomeDir is haven's state directory, ~/.haven.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".haven")
}

// Load resolves configuration. Precedence, lowest first: defaults, config
// file (TOML or YAML), .env, HAVEN_* environment.
func Load(opts Options) (*Config, error) {
	cfg := Defaults()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path == "" {
		path = findDefaultFile()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports every failing field.
func (c *Config) Validate() error {
	if err := v.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return fmt.Errorf("config: %w", err)
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func configDir() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "haven")
}

func findDefaultFile() string {
	dir := configDir()
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	raw := map[string]interface{}{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return fmt.Errorf("config: unsupported file type %q", ext)
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	for k, val := range raw {
		s, ok := coerce(val)
		if !ok {
			return fmt.Errorf("config: unsupported value type for %s: %T", k, val)
		}
		if err := c.set(strings.ToLower(k), s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) loadEnv() error {
	for _, key := range keys {
		if val, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(key)); ok && val != "" {
			if err := c.set(key, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// keys lists every settable key in file and env form (env is upper-cased).
var keys = []string{
	"api_url", "token_file", "poll_interval", "request_timeout",
	"rate_limit", "rate_burst", "retry_max", "log_level", "log_file", "pretty_log",
}

func (c *Config) set(key, val string) error {
	var err error
	switch key {
	case "api_url":
		c.APIURL = strings.TrimRight(val, "/")
	case "token_file":
		c.TokenFile = expandHome(val)
	case "poll_interval":
		c.PollInterval, err = parseDuration(val)
	case "request_timeout":
		c.RequestTimeout, err = parseDuration(val)
	case "rate_limit":
		c.RateLimit, err = strconv.ParseFloat(val, 64)
	case "rate_burst":
		c.RateBurst, err = strconv.Atoi(val)
	case "retry_max":
		c.RetryMax, err = strconv.Atoi(val)
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_file":
		c.LogFile = expandHome(val)
	case "pretty_log":
		c.PrettyLog, err = strconv.ParseBool(val)
	default:
		return fmt.Errorf("config: unknown key %q", key)
	}
	if err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", key, val, err)
	}
	return nil
}

// parseDuration accepts Go durations ("45s") or bare seconds ("45").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func coerce(val interface{}) (string, bool) {
	switch t := val.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
