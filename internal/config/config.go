// Package config owns the persisted settings document: provider credentials,
// the watch folder, and the upload cache map. A single Store loads the TOML
// file, merges defaults, and persists every mutation; callers receive
// immutable Settings snapshots so no operation observes a half-applied change.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Provider selects which backend handles image uploads. Videos always go to
// YouTube regardless of this value.
type Provider string

const (
	ProviderImgur Provider = "imgur"
	ProviderS3    Provider = "s3"
	ProviderR2    Provider = "r2"
)

// ImgurSettings holds the imgur API credential.
type ImgurSettings struct {
	ClientID string `toml:"client_id"`
}

// S3Settings configures a generic S3-compatible target (AWS, Hetzner, MinIO).
type S3Settings struct {
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Bucket          string `toml:"bucket"`
	PublicDomain    string `toml:"public_domain"`
	ForcePathStyle  bool   `toml:"force_path_style"`
}

// R2Settings configures Cloudflare R2, whose endpoint is derived from the
// account ID rather than configured directly.
type R2Settings struct {
	AccountID       string `toml:"account_id"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Bucket          string `toml:"bucket"`
	PublicDomain    string `toml:"public_domain"`
	PublicURL       string `toml:"public_url"`
}

// YouTubeSettings holds the OAuth credential pair for video uploads.
type YouTubeSettings struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Settings is the immutable per-operation snapshot of the configuration.
type Settings struct {
	WatchFolder   string          `toml:"watch_folder"`
	InboxNote     string          `toml:"inbox_note"`
	ImageProvider Provider        `toml:"image_provider"`
	Imgur         ImgurSettings   `toml:"imgur"`
	S3            S3Settings      `toml:"s3"`
	R2            R2Settings      `toml:"r2"`
	YouTube       YouTubeSettings `toml:"youtube"`
}

// NormalizedWatchFolder returns the watch folder with a trailing slash so it
// can be used as a path prefix.
func (s Settings) NormalizedWatchFolder() string {
	folder := s.WatchFolder
	if folder == "" || strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}

// defaults mirror the original plugin's out-of-the-box behavior.
func defaultSettings() Settings {
	return Settings{
		WatchFolder:   "auto-upload/",
		ImageProvider: ProviderImgur,
		S3:            S3Settings{Region: "auto"},
	}
}

// document is the on-disk TOML shape: the settings plus the upload cache.
type document struct {
	Settings
	Cache map[string]string `toml:"cache"`
}

// Store loads and persists the configuration document. All mutating methods
// write the file before returning so a crash at worst re-uploads a file, it
// never loses a recorded URL.
type Store struct {
	mu   sync.RWMutex
	path string
	doc  document
}

// Open reads the configuration at path, falling back to an in-memory default
// document when the file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		doc:  document{Settings: defaultSettings(), Cache: map[string]string{}},
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if s.doc.Cache == nil {
		s.doc.Cache = map[string]string{}
	}
	if s.doc.WatchFolder == "" {
		s.doc.WatchFolder = defaultSettings().WatchFolder
	}
	if s.doc.ImageProvider == "" {
		s.doc.ImageProvider = ProviderImgur
	}
	if s.doc.S3.Region == "" {
		s.doc.S3.Region = "auto"
	}
	return s, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Settings
}

// SaveSettings replaces the settings and persists the document. The cache map
// is kept as-is.
func (s *Store) SaveSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Settings = settings
	return s.save()
}

// SetYouTubeTokens stores a refreshed credential pair. An empty refresh token
// keeps the existing one, which is what a plain access-token refresh needs.
func (s *Store) SetYouTubeTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.YouTube.AccessToken = access
	if refresh != "" {
		s.doc.YouTube.RefreshToken = refresh
	}
	return s.save()
}

// YouTubeTokens returns the stored credential pair and OAuth client identity.
func (s *Store) YouTubeTokens() (access, refresh, clientID, clientSecret string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	yt := s.doc.YouTube
	return yt.AccessToken, yt.RefreshToken, yt.ClientID, yt.ClientSecret
}

// CacheSnapshot returns a copy of the persisted upload cache entries.
func (s *Store) CacheSnapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.doc.Cache))
	for k, v := range s.doc.Cache {
		out[k] = v
	}
	return out
}

// PersistCache replaces the stored cache map and writes the document. It is
// the persistence hook the upload cache calls after every Put and Clear.
func (s *Store) PersistCache(entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Cache = make(map[string]string, len(entries))
	for k, v := range entries {
		s.doc.Cache[k] = v
	}
	return s.save()
}

func (s *Store) save() error {
	data, err := toml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
