package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(config.EnvFeedURL, "")
	t.Setenv(config.EnvRoot, "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://feeds.fireside.fm/zeroknowledge/rss", cfg.FeedURL)
	assert.Equal(t, "out", cfg.Archive.Root)
	assert.Equal(t, "mp3", cfg.Archive.MediaDir)
	assert.Equal(t, "mp3", cfg.Archive.MediaExtension)
	assert.Equal(t, "sha256", cfg.Hash.Algorithm)
	assert.Equal(t, 60*time.Second, cfg.FeedTimeout())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(config.EnvFeedURL, "")
	t.Setenv(config.EnvRoot, "/srv/archive")

	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
feed_url = "https://example.com/rss"

[archive]
root = "ignored-by-env"
media_dir = "/audio/"
media_extension = ".m4a"

[hash]
algorithm = "BLAKE3"

[logging]
format = "json"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/rss", cfg.FeedURL)
	assert.Equal(t, "/srv/archive", cfg.Archive.Root)
	assert.Equal(t, "audio", cfg.Archive.MediaDir)
	assert.Equal(t, "m4a", cfg.Archive.MediaExtension)
	assert.Equal(t, "blake3", cfg.Hash.Algorithm)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(config.EnvFeedURL, "")
	require.NoError(t, os.Unsetenv(config.EnvFeedURL))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PODARCHIVE_FEED_URL=https://dotenv.example.com/rss\n"), 0o644))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example.com/rss", cfg.FeedURL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := config.Load("does-not-exist.toml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cfg.FeedURL = ""
	cfg.Hash.Algorithm = "md5"
	cfg.HTTP.TimeoutSeconds = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed_url")
	assert.Contains(t, err.Error(), "hash.algorithm")
	assert.Contains(t, err.Error(), "timeout_seconds")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
