package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/surveyloom/internal/ai"
	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// Global configuration structure.
type Global struct {
	// AI
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Pipeline
	SurveyPatterns []string `mapstructure:"survey_patterns" yaml:"survey_patterns"`
	SkipPatterns   []string `mapstructure:"skip_patterns" yaml:"skip_patterns"`
	MaxRows        int      `mapstructure:"max_rows" yaml:"max_rows"`
	OutputDir      string   `mapstructure:"output_dir" yaml:"output_dir"`
	Enrich         bool     `mapstructure:"enrich" yaml:"enrich"`

	// Run history; an empty driver disables it.
	StoreDriver string `mapstructure:"store_driver" yaml:"store_driver"`
	StoreDSN    string `mapstructure:"store_dsn" yaml:"store_dsn"`

	// MinIO artifact upload; an empty endpoint disables it.
	MinioEndpoint  string `mapstructure:"minio_endpoint" yaml:"minio_endpoint"`
	MinioRegion    string `mapstructure:"minio_region" yaml:"minio_region"`
	MinioBucket    string `mapstructure:"minio_bucket" yaml:"minio_bucket"`
	MinioAccessKey string `mapstructure:"minio_access_key" yaml:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key" yaml:"minio_secret_key"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl" yaml:"minio_use_ssl"`

	// HTTP server
	ServerAddr      string   `mapstructure:"server_addr" yaml:"server_addr"`
	ServerRateLimit float64  `mapstructure:"server_rate_limit" yaml:"server_rate_limit"`
	ServerBurst     int      `mapstructure:"server_burst" yaml:"server_burst"`
	CORSOrigins     []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	UploadDir       string   `mapstructure:"upload_dir" yaml:"upload_dir"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// HomeDir is ~/.surveyloom.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".surveyloom"), nil
}

func defaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("provider", ai.ProviderOpenAI)
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("base_url", "")
	v.SetDefault("max_tokens", 1200)
	v.SetDefault("temperature", 0.3)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	v.SetDefault("survey_patterns", survey.DefaultSurveyPatterns)
	v.SetDefault("skip_patterns", survey.DefaultSkipPatterns)
	v.SetDefault("max_rows", 100000)
	v.SetDefault("output_dir", "")
	v.SetDefault("enrich", false)

	v.SetDefault("store_driver", "sqlite3")
	v.SetDefault("store_dsn", "")

	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_region", "us-east-1")
	v.SetDefault("minio_bucket", "surveyloom")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_use_ssl", false)

	v.SetDefault("server_addr", ":8080")
	v.SetDefault("server_rate_limit", 10.0)
	v.SetDefault("server_burst", 20)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("upload_dir", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SURVEYLOOM")
	v.AutomaticEnv()
	defaults(v)

	home, err := HomeDir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(home)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// A missing file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v, home)
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() (*Global, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	defaults(v)
	return decode(v, home)
}

func decode(v *viper.Viper, home string) (*Global, error) {
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve home-relative defaults.
	if c.StoreDriver == "sqlite3" && c.StoreDSN == "" {
		c.StoreDSN = filepath.Join(home, "runs.db")
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(home, "uploads")
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(home, "exports")
	}
	return &c, nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveyloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := HomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// RuntimeConfig builds the AI runtime settings.
func (c *Global) RuntimeConfig() ai.RuntimeConfig {
	return ai.RuntimeConfig{
		HTTPTimeout: c.HTTPTimeout(),
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
	}
}

var secretKeys = map[string]bool{"api_key": true, "minio_secret_key": true, "minio_access_key": true, "store_dsn": true}

// Keys lists the settable keys, sorted.
func Keys() []string {
	out := make([]string, 0, len(setters))
	for k := range setters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Masked returns key/value pairs for display with secrets hidden.
func (c *Global) Masked() [][2]string {
	var out [][2]string
	for _, k := range Keys() {
		val := c.Get(k)
		if secretKeys[k] {
			val = mask(val)
		}
		out = append(out, [2]string{k, val})
	}
	return out
}

func mask(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}

type field struct {
	get func(c *Global) string
	set func(c *Global, v string) error
}

func str(p func(c *Global) *string) field {
	return field{
		get: func(c *Global) string { return *p(c) },
		set: func(c *Global, v string) error { *p(c) = v; return nil },
	}
}

func integer(p func(c *Global) *int, min int) field {
	return field{
		get: func(c *Global) string { return strconv.Itoa(*p(c)) },
		set: func(c *Global, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < min {
				return fmt.Errorf("expected an integer >= %d, got %q", min, v)
			}
			*p(c) = n
			return nil
		},
	}
}

func float(p func(c *Global) *float64, min, max float64) field {
	return field{
		get: func(c *Global) string { return strconv.FormatFloat(*p(c), 'f', -1, 64) },
		set: func(c *Global, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || f < min || f > max {
				return fmt.Errorf("expected a number in [%g, %g], got %q", min, max, v)
			}
			*p(c) = f
			return nil
		},
	}
}

func boolean(p func(c *Global) *bool) field {
	return field{
		get: func(c *Global) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Global, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", v)
			}
			*p(c) = b
			return nil
		},
	}
}

func list(p func(c *Global) *[]string) field {
	return field{
		get: func(c *Global) string { return strings.Join(*p(c), ",") },
		set: func(c *Global, v string) error {
			var out []string
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			*p(c) = out
			return nil
		},
	}
}

func oneOf(p func(c *Global) *string, allowed ...string) field {
	f := str(p)
	f.set = func(c *Global, v string) error {
		v = strings.ToLower(strings.TrimSpace(v))
		for _, a := range allowed {
			if v == a {
				*p(c) = v
				return nil
			}
		}
		return fmt.Errorf("expected one of %s, got %q", strings.Join(allowed, "|"), v)
	}
	return f
}

var setters = map[string]field{
	"api_key":             str(func(c *Global) *string { return &c.APIKey }),
	"provider":            oneOf(func(c *Global) *string { return &c.Provider }, ai.ProviderOpenAI, ai.ProviderOpenRouter, ai.ProviderOllama),
	"model":               str(func(c *Global) *string { return &c.Model }),
	"base_url":            str(func(c *Global) *string { return &c.BaseURL }),
	"max_tokens":          integer(func(c *Global) *int { return &c.MaxTokens }, 1),
	"temperature":         float(func(c *Global) *float64 { return &c.Temperature }, 0, 2),
	"http_timeout_sec":    integer(func(c *Global) *int { return &c.HTTPTimeoutSec }, 1),
	"retry_max_attempts":  integer(func(c *Global) *int { return &c.RetryMaxAttempts }, 1),
	"retry_base_delay_ms": integer(func(c *Global) *int { return &c.RetryBaseDelayMs }, 0),
	"retry_max_delay_ms":  integer(func(c *Global) *int { return &c.RetryMaxDelayMs }, 0),
	"survey_patterns":     list(func(c *Global) *[]string { return &c.SurveyPatterns }),
	"skip_patterns":       list(func(c *Global) *[]string { return &c.SkipPatterns }),
	"max_rows":            integer(func(c *Global) *int { return &c.MaxRows }, 0),
	"output_dir":          str(func(c *Global) *string { return &c.OutputDir }),
	"enrich":              boolean(func(c *Global) *bool { return &c.Enrich }),
	"store_driver":        oneOf(func(c *Global) *string { return &c.StoreDriver }, "", "sqlite3", "postgres", "mysql"),
	"store_dsn":           str(func(c *Global) *string { return &c.StoreDSN }),
	"minio_endpoint":      str(func(c *Global) *string { return &c.MinioEndpoint }),
	"minio_region":        str(func(c *Global) *string { return &c.MinioRegion }),
	"minio_bucket":        str(func(c *Global) *string { return &c.MinioBucket }),
	"minio_access_key":    str(func(c *Global) *string { return &c.MinioAccessKey }),
	"minio_secret_key":    str(func(c *Global) *string { return &c.MinioSecretKey }),
	"minio_use_ssl":       boolean(func(c *Global) *bool { return &c.MinioUseSSL }),
	"server_addr":         str(func(c *Global) *string { return &c.ServerAddr }),
	"server_rate_limit":   float(func(c *Global) *float64 { return &c.ServerRateLimit }, 0, 1e6),
	"server_burst":        integer(func(c *Global) *int { return &c.ServerBurst }, 1),
	"cors_origins":        list(func(c *Global) *[]string { return &c.CORSOrigins }),
	"upload_dir":          str(func(c *Global) *string { return &c.UploadDir }),
	"log_level":           oneOf(func(c *Global) *string { return &c.LogLevel }, "debug", "info", "warn", "error"),
	"log_format":          oneOf(func(c *Global) *string { return &c.LogFormat }, "text", "json"),
}

// Get returns the string form of a key, or "" for unknown keys.
func (c *Global) Get(key string) string {
	f, ok := setters[key]
	if !ok {
		return ""
	}
	return f.get(c)
}

// Set validates value and assigns it to key.
func (c *Global) Set(key, value string) error {
	f, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := f.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
