package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".autoupload.toml")
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	s, err := Open(configPath(t))
	require.NoError(t, err)

	settings := s.Settings()
	assert.Equal(t, "auto-upload/", settings.WatchFolder)
	assert.Equal(t, ProviderImgur, settings.ImageProvider)
	assert.Equal(t, "auto", settings.S3.Region)
	assert.Empty(t, s.CacheSnapshot())
}

func TestOpenMergesDefaultsIntoPartialFile(t *testing.T) {
	path := configPath(t)
	require.NoError(t, os.WriteFile(path, []byte(`
image_provider = "r2"

[r2]
account_id = "acct"
bucket = "media"
`), 0o600))

	s, err := Open(path)
	require.NoError(t, err)

	settings := s.Settings()
	assert.Equal(t, ProviderR2, settings.ImageProvider)
	assert.Equal(t, "acct", settings.R2.AccountID)
	assert.Equal(t, "auto-upload/", settings.WatchFolder, "missing folder falls back to default")
	assert.Equal(t, "auto", settings.S3.Region)
}

func TestOpenRejectsMalformedFile(t *testing.T) {
	path := configPath(t)
	require.NoError(t, os.WriteFile(path, []byte("watch_folder = [broken"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestSaveSettingsRoundTrips(t *testing.T) {
	path := configPath(t)
	s, err := Open(path)
	require.NoError(t, err)

	settings := s.Settings()
	settings.WatchFolder = "media"
	settings.ImageProvider = ProviderS3
	settings.S3.Bucket = "notes"
	require.NoError(t, s.SaveSettings(settings))

	reopened, err := Open(path)
	require.NoError(t, err)
	got := reopened.Settings()
	assert.Equal(t, "media", got.WatchFolder)
	assert.Equal(t, ProviderS3, got.ImageProvider)
	assert.Equal(t, "notes", got.S3.Bucket)
}

func TestPersistCacheSurvivesReopen(t *testing.T) {
	path := configPath(t)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.PersistCache(map[string]string{"photo.png": "https://cdn/photo.png"}))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"photo.png": "https://cdn/photo.png"}, reopened.CacheSnapshot())
}

func TestPersistCacheKeepsSettings(t *testing.T) {
	path := configPath(t)
	s, err := Open(path)
	require.NoError(t, err)

	settings := s.Settings()
	settings.Imgur.ClientID = "abc123"
	require.NoError(t, s.SaveSettings(settings))
	require.NoError(t, s.PersistCache(map[string]string{"a.png": "https://cdn/a"}))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", reopened.Settings().Imgur.ClientID)
}

func TestSetYouTubeTokens(t *testing.T) {
	path := configPath(t)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.SetYouTubeTokens("access-1", "refresh-1"))
	access, refresh, _, _ := s.YouTubeTokens()
	assert.Equal(t, "access-1", access)
	assert.Equal(t, "refresh-1", refresh)

	// A refresh response without a new refresh token keeps the old one.
	require.NoError(t, s.SetYouTubeTokens("access-2", ""))
	access, refresh, _, _ = s.YouTubeTokens()
	assert.Equal(t, "access-2", access)
	assert.Equal(t, "refresh-1", refresh)
}

func TestNormalizedWatchFolder(t *testing.T) {
	assert.Equal(t, "media/", Settings{WatchFolder: "media"}.NormalizedWatchFolder())
	assert.Equal(t, "media/", Settings{WatchFolder: "media/"}.NormalizedWatchFolder())
	assert.Equal(t, "", Settings{}.NormalizedWatchFolder())
}

func TestOpenCreatesParentDirOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.toml")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.PersistCache(map[string]string{}))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
