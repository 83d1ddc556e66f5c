package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dox/internal/snippet"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	APINav  APINavConfig      `yaml:"api_nav"`
	Site    SiteConfig        `yaml:"site"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// Production silences snippet diagnostics emitted while compiling.
	Production bool       `yaml:"production"`
	HTTP       HTTPConfig `yaml:"http"`
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

// ContentConfig describes where documents, the manifest, navigation and
// snippet modules live.
type ContentConfig struct {
	// Roots are searched in order for dynamic documents.
	Roots      []string `yaml:"roots"`
	Manifest   string   `yaml:"manifest"`
	Navigation string   `yaml:"navigation"`
	// Changelog is the release history file. Empty serves no releases.
	Changelog string `yaml:"changelog"`
	// Snippets bind import paths to module files. Relative files resolve
	// against the first root.
	Snippets []snippet.Source `yaml:"snippets"`
	Language string           `yaml:"language"`
	// DevReload evicts cached documents when their source changes.
	DevReload bool `yaml:"dev_reload"`
}

var snippetPath = regexp.MustCompile(`^/snippets/`)

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Roots, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.Navigation, validation.Required),
		validation.Field(&c.Language, validation.Required),
	); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	for i := range c.Snippets {
		s := &c.Snippets[i]
		if err := validation.ValidateStruct(s,
			validation.Field(&s.Path, validation.Required, validation.Match(snippetPath)),
			validation.Field(&s.File, validation.Required),
			validation.Field(&s.Exports, validation.Required),
		); err != nil {
			return fmt.Errorf("content: snippets[%d]: %w", i, err)
		}
	}
	return nil
}

// APINavConfig points at pre-built API reference navigation.
// An empty File disables the API collection.
type APINavConfig struct {
	File        string `yaml:"file"`
	DefaultSpec string `yaml:"default_spec"`
}

// SiteConfig holds public site settings used for the sitemap, the
// changelog feed and edit links.
type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
	Name    string `yaml:"name"`
	// RepoURL enables "edit this page" links when set.
	RepoURL    string `yaml:"repo_url"`
	EditBranch string `yaml:"edit_branch"`
	// ContentDir is the content root's path inside the repository.
	ContentDir string `yaml:"content_dir"`
}

var httpURL = regexp.MustCompile(`^https?://`)

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	c.RepoURL = strings.TrimSuffix(c.RepoURL, "/")
	if c.EditBranch == "" {
		c.EditBranch = "main"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.Match(httpURL)),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.RepoURL, validation.Match(httpURL)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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
		Content: ContentConfig{
			Roots:      []string{"./content"},
			Navigation: "./content/navigation.yaml",
			Language:   "en",
		},
		Site: SiteConfig{
			BaseURL:    "http://localhost:8080",
			Name:       "Docs",
			EditBranch: "main",
		},
		SQLite: SQLiteConfig{
			Path: "./dox.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
