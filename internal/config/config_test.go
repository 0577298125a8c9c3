package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Provider != "openai" || c.HTTPTimeoutSec != 60 || c.RetryMaxAttempts != 3 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.MaxRows != 100000 || c.ServerAddr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.SurveyPatterns) == 0 || len(c.SkipPatterns) == 0 {
		t.Fatalf("expected default column patterns")
	}
	want := filepath.Join(home, ".surveyloom", "runs.db")
	if c.StoreDSN != want {
		t.Fatalf("store dsn: got %q want %q", c.StoreDSN, want)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("model: from-file\nmax_rows: 50\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SURVEYLOOM_MODEL", "from-env")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Model != "from-env" {
		t.Fatalf("expected env to win, got %q", c.Model)
	}
	if c.MaxRows != 50 {
		t.Fatalf("expected file value 50, got %d", c.MaxRows)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if err := c.Set("temperature", "0.7"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("cors_origins", "https://a.example, https://b.example"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Temperature != 0.7 {
		t.Fatalf("temperature: %v", got.Temperature)
	}
	if len(got.CORSOrigins) != 2 || got.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: %v", got.CORSOrigins)
	}
}

func TestSetValidation(t *testing.T) {
	c := &Global{}
	cases := []struct {
		key, value string
		ok         bool
	}{
		{"provider", "Ollama", true},
		{"provider", "bedrock", false},
		{"max_tokens", "0", false},
		{"max_tokens", "256", true},
		{"temperature", "3", false},
		{"enrich", "yes", false},
		{"enrich", "true", true},
		{"log_format", "json", true},
		{"store_driver", "oracle", false},
		{"no_such_key", "x", false},
	}
	for _, tc := range cases {
		err := c.Set(tc.key, tc.value)
		if (err == nil) != tc.ok {
			t.Fatalf("Set(%q, %q): err=%v, want ok=%v", tc.key, tc.value, err, tc.ok)
		}
	}
	if c.Provider != "ollama" || c.MaxTokens != 256 || !c.Enrich {
		t.Fatalf("unexpected values: %+v", c)
	}
}

func TestMaskedHidesSecrets(t *testing.T) {
	c := &Global{APIKey: "sk-1234567890abcdef", MinioSecretKey: "short"}
	seen := map[string]string{}
	for _, kv := range c.Masked() {
		seen[kv[0]] = kv[1]
	}
	if seen["api_key"] != "sk-1****cdef" {
		t.Fatalf("api_key: %q", seen["api_key"])
	}
	if seen["minio_secret_key"] != "****" {
		t.Fatalf("minio_secret_key: %q", seen["minio_secret_key"])
	}
	if seen["minio_access_key"] != "(not set)" {
		t.Fatalf("minio_access_key: %q", seen["minio_access_key"])
	}
	for _, kv := range c.Masked() {
		if strings.Contains(kv[1], "1234567890") {
			t.Fatalf("secret leaked in %s", kv[0])
		}
	}
}

func TestRuntimeConfig(t *testing.T) {
	c := &Global{HTTPTimeoutSec: 5, RetryMaxAttempts: 2, RetryBaseDelayMs: 100, RetryMaxDelayMs: 900, APIKey: "k", BaseURL: "http://x"}
	rc := c.RuntimeConfig()
	if rc.HTTPTimeout != 5*time.Second || rc.BaseDelay != 100*time.Millisecond || rc.MaxDelay != 900*time.Millisecond {
		t.Fatalf("unexpected runtime config: %+v", rc)
	}
	if rc.RetryMax != 2 || rc.APIKey != "k" || rc.BaseURL != "http://x" {
		t.Fatalf("unexpected runtime config: %+v", rc)
	}
}

func TestDefaultsIgnoreEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SURVEYLOOM_MODEL", "from-env")
	c, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if c.Model == "from-env" {
		t.Fatalf("Defaults must not read the environment")
	}
}
