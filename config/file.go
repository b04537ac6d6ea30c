package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pevans/newsdesk/article"
)

// Remote backend types.
const (
	RemoteMemory   = "memory"
	RemoteSQLite   = "sqlite"
	RemoteFirebase = "firebase"
	RemoteMongo    = "mongo"
	RemotePostgres = "postgres"
)

// Upload service types.
const (
	UploadNone  = "none"
	UploadImgBB = "imgbb"
	UploadDir   = "dir"
)

// DefaultImgBBEndpoint is the upload endpoint used when none is configured.
const DefaultImgBBEndpoint = "https://api.imgbb.com/1/upload"

// RemoteConfig selects and configures the remote tree.
type RemoteConfig struct {
	Type       string `yaml:"type"`
	DSN        string `yaml:"dsn"`
	URL        string `yaml:"url"`
	Secret     string `yaml:"secret"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// UploadConfig selects and configures the image upload service.
type UploadConfig struct {
	Type     string `yaml:"type"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Dir      string `yaml:"dir"`
	BaseURL  string `yaml:"base_url"`
}

// FileConfig represents the structure of the newsdesk config file.
type FileConfig struct {
	Listen        string           `yaml:"listen"`
	LogLevel      string           `yaml:"log_level"`
	LogFormat     string           `yaml:"log_format"`
	Timezone      string           `yaml:"timezone"`
	DefaultAuthor string           `yaml:"default_author"`
	DebugLocation string           `yaml:"debug_location"`
	Taxonomy      article.Taxonomy `yaml:"taxonomy"`
	Remote        RemoteConfig     `yaml:"remote"`
	Upload        UploadConfig     `yaml:"upload"`
}

// Path returns the config file location: $NEWSDESK_CONFIG if set, else
// ~/.newsdesk/config.yaml.
func Path() (string, error) {
	if p := os.Getenv("NEWSDESK_CONFIG"); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newsdesk", "config.yaml"), nil
}

// Load reads the config file at path (or Path() when empty), fills in
// defaults, applies environment overrides and validates the result. A
// missing file is not an error; defaults are used instead.
func Load(path string) (*FileConfig, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &FileConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() *FileConfig {
	cfg := &FileConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *FileConfig) applyDefaults() {
	if c.Listen == "" {
		c.Listen = getEnv("NEWSDESK_LISTEN", ":8080")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.DefaultAuthor == "" {
		c.DefaultAuthor = "Alice Bobson"
	}
	if len(c.Taxonomy) == 0 {
		c.Taxonomy = article.DefaultTaxonomy()
	}
	if c.Remote.Type == "" {
		c.Remote.Type = RemoteSQLite
	}
	if c.Remote.Type == RemoteSQLite && c.Remote.DSN == "" {
		c.Remote.DSN = "newsdesk.db"
	}
	if c.Remote.Type == RemoteMongo {
		if c.Remote.Database == "" {
			c.Remote.Database = "newsdesk"
		}
		if c.Remote.Collection == "" {
			c.Remote.Collection = "articles"
		}
	}
	if c.Upload.Type == "" {
		c.Upload.Type = UploadNone
	}
	if c.Upload.Type == UploadImgBB && c.Upload.Endpoint == "" {
		c.Upload.Endpoint = DefaultImgBBEndpoint
	}
}

func (c *FileConfig) applyEnv() {
	c.Remote.DSN = getEnv("NEWSDESK_REMOTE_DSN", c.Remote.DSN)
	c.Upload.APIKey = getEnv("NEWSDESK_UPLOAD_KEY", c.Upload.APIKey)
}

// Validate checks that the selected backends have what they need.
func (c *FileConfig) Validate() error {
	switch c.Remote.Type {
	case RemoteMemory:
	case RemoteSQLite, RemotePostgres, RemoteMongo:
		if c.Remote.DSN == "" {
			return fmt.Errorf("remote.dsn is required for remote type %q", c.Remote.Type)
		}
	case RemoteFirebase:
		if c.Remote.URL == "" {
			return fmt.Errorf("remote.url is required for remote type %q", c.Remote.Type)
		}
	default:
		return fmt.Errorf("unknown remote type %q", c.Remote.Type)
	}

	switch c.Upload.Type {
	case UploadNone:
	case UploadImgBB:
		if c.Upload.APIKey == "" {
			return fmt.Errorf("upload.api_key is required for upload type %q", c.Upload.Type)
		}
	case UploadDir:
		if c.Upload.Dir == "" || c.Upload.BaseURL == "" {
			return fmt.Errorf("upload.dir and upload.base_url are required for upload type %q", c.Upload.Type)
		}
	default:
		return fmt.Errorf("unknown upload type %q", c.Upload.Type)
	}

	for _, s := range c.Taxonomy {
		if s.Location == "" || len(s.Categories) == 0 {
			return fmt.Errorf("taxonomy entry %q needs a location and at least one category", s.Location)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Location returns the display time zone. An empty timezone yields nil,
// which leaves the editor's default in place.
func (c *FileConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level parses log_level.
func (c *FileConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// ArticleConfig builds the shared article configuration.
func (c *FileConfig) ArticleConfig() (*article.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	cfg := article.NewConfig()
	cfg.Taxonomy = c.Taxonomy
	if loc != nil {
		cfg.Zone = loc
	}
	return cfg, nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
