package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/logpress/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg = AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestConfig_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"auth", func(c *Config) { c.Auth.Mode = "token"; c.Auth.Token = "" }},
		{"port", func(c *Config) { c.App.HTTP.Port = 70000 }},
		{"graph path", func(c *Config) { c.Graph.Path = "" }},
		{"output path", func(c *Config) { c.Output.Path = "" }},
		{"catalog path", func(c *Config) { c.Catalog.Path = "" }},
		{"workers", func(c *Config) { c.Convert.Workers = -1 }},
		{"output inside pages", func(c *Config) { c.Output.Path = filepath.Join(c.Graph.Path, "pages", "site") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_OutputBesidePagesIsAllowed(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Path = filepath.Join(cfg.Graph.Path, "site")
	if err := cfg.Validate(); err != nil {
		t.Errorf("output beside pages: %v", err)
	}
}

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("LOGPRESS_TEST_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "graph:\n  path: ./notes\noutput:\n  path: ./public\nconvert:\n  workers: 2\nauth:\n  mode: token\n  token: ${LOGPRESS_TEST_TOKEN}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Token != "s3cret" || cfg.Graph.Path != "./notes" || cfg.Convert.Workers != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Graph.PagesDir != "pages" || !cfg.Convert.CreateStubs {
		t.Errorf("defaults lost: %+v", cfg)
	}
}
