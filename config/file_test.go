package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newsdesk/article"
)

// writeConfig writes content to a config file in a fresh directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_NoFile verifies defaults are used when the file is missing.
func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "Alice Bobson", cfg.DefaultAuthor)
	assert.Equal(t, RemoteSQLite, cfg.Remote.Type)
	assert.Equal(t, "newsdesk.db", cfg.Remote.DSN)
	assert.Equal(t, UploadNone, cfg.Upload.Type)
	assert.Equal(t, article.DefaultTaxonomy(), cfg.Taxonomy)
}

// TestLoad_ValidConfig verifies every section is read.
func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `listen: "127.0.0.1:9000"
log_level: debug
log_format: json
timezone: America/Los_Angeles
default_author: Newsroom
debug_location: DEBUG
taxonomy:
  - location: news
    categories: [Local, World]
remote:
  type: firebase
  url: https://example.firebaseio.com
  secret: s3cret
upload:
  type: imgbb
  api_key: abc
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "DEBUG", cfg.DebugLocation)
	assert.Equal(t, article.Taxonomy{{Location: "news", Categories: []string{"Local", "World"}}}, cfg.Taxonomy)
	assert.Equal(t, RemoteFirebase, cfg.Remote.Type)
	assert.Equal(t, "https://example.firebaseio.com", cfg.Remote.URL)
	assert.Equal(t, "s3cret", cfg.Remote.Secret)
	assert.Equal(t, DefaultImgBBEndpoint, cfg.Upload.Endpoint)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	acfg, err := cfg.ArticleConfig()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", acfg.Zone.String())
	assert.Equal(t, cfg.Taxonomy, acfg.Taxonomy)
}

// TestLoad_InvalidYAML verifies parse errors are reported.
func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "remote:\n  - not a mapping\n")

	cfg, err := Load(path)

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

// TestLoad_EnvOverrides verifies environment variables win over the file.
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `remote:
  type: postgres
  dsn: postgres://file/db
upload:
  type: imgbb
  api_key: from-file
`)
	t.Setenv("NEWSDESK_REMOTE_DSN", "postgres://env/db")
	t.Setenv("NEWSDESK_UPLOAD_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Remote.DSN)
	assert.Equal(t, "from-env", cfg.Upload.APIKey)
}

// TestLoad_ConfigEnvPath verifies NEWSDESK_CONFIG picks the file.
func TestLoad_ConfigEnvPath(t *testing.T) {
	path := writeConfig(t, "default_author: Env Path\n")
	t.Setenv("NEWSDESK_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Env Path", cfg.DefaultAuthor)
}

// TestLoad_HomeDefault verifies the home directory location.
func TestLoad_HomeDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NEWSDESK_CONFIG", "")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".newsdesk"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".newsdesk", "config.yaml"), []byte("listen: \":1234\"\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":1234", cfg.Listen)
}

// TestValidate verifies each rejected combination.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *FileConfig)
		want   string
	}{
		{"unknown remote", func(c *FileConfig) { c.Remote.Type = "redis" }, "unknown remote type"},
		{"postgres without dsn", func(c *FileConfig) { c.Remote = RemoteConfig{Type: RemotePostgres} }, "remote.dsn is required"},
		{"firebase without url", func(c *FileConfig) { c.Remote = RemoteConfig{Type: RemoteFirebase} }, "remote.url is required"},
		{"imgbb without key", func(c *FileConfig) { c.Upload = UploadConfig{Type: UploadImgBB} }, "upload.api_key is required"},
		{"dir without base url", func(c *FileConfig) { c.Upload = UploadConfig{Type: UploadDir, Dir: "/tmp"} }, "upload.base_url are required"},
		{"unknown upload", func(c *FileConfig) { c.Upload.Type = "s3" }, "unknown upload type"},
		{"empty section", func(c *FileConfig) { c.Taxonomy = article.Taxonomy{{Location: "x"}} }, "taxonomy entry"},
		{"bad timezone", func(c *FileConfig) { c.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"bad level", func(c *FileConfig) { c.LogLevel = "loud" }, "invalid log_level"},
		{"bad format", func(c *FileConfig) { c.LogFormat = "xml" }, "log_format must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}
