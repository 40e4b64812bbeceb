package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Graph   GraphConfig       `yaml:"graph"`
	Output  OutputConfig      `yaml:"output"`
	Convert ConvertConfig     `yaml:"convert"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Convert.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.checkOutputOutsideGraph()
}

// checkOutputOutsideGraph rejects an output directory inside one of the
// graph's source directories, which would feed outputs back as input.
func (c *Config) checkOutputOutsideGraph() error {
	out, err := filepath.Abs(c.Output.Path)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	for _, dir := range []string{c.Graph.PagesDir, c.Graph.JournalsDir} {
		if dir == "" {
			continue
		}
		src, err := filepath.Abs(filepath.Join(c.Graph.Path, dir))
		if err != nil {
			return fmt.Errorf("graph: %w", err)
		}
		rel, err := filepath.Rel(src, out)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return fmt.Errorf("output: %s is inside source directory %s", c.Output.Path, src)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GraphConfig locates the source graph. Directory names are relative to Path.
type GraphConfig struct {
	Path        string `yaml:"path"`
	PagesDir    string `yaml:"pages_dir"`
	JournalsDir string `yaml:"journals_dir"`
	AssetsDir   string `yaml:"assets_dir"`
}

// Validate validates the graph configuration.
func (c *GraphConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.PagesDir, validation.Required),
	)
}

// OutputConfig holds the directory the site is written to.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ConvertConfig controls conversion.
type ConvertConfig struct {
	IncludePrivate bool `yaml:"include_private"`
	CreateStubs    bool `yaml:"create_stubs"`
	Workers        int  `yaml:"workers"`
	GitDates       bool `yaml:"git_dates"`
	JournalIndex   bool `yaml:"journal_index"`
}

// Validate validates the conversion configuration.
func (c *ConvertConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(1024)),
	)
}

// CatalogConfig holds the SQLite catalog location.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Graph: GraphConfig{
			Path:        "./graph",
			PagesDir:    "pages",
			JournalsDir: "journals",
			AssetsDir:   "assets",
		},
		Output: OutputConfig{
			Path: "./content",
		},
		Convert: ConvertConfig{
			CreateStubs:  true,
			Workers:      runtime.GOMAXPROCS(0),
			JournalIndex: true,
		},
		Catalog: CatalogConfig{
			Path: "./logpress.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
