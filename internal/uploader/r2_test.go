package uploader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JawadAlhindi/autoupload/internal/config"
	"github.com/JawadAlhindi/autoupload/internal/vault"
)

func r2Config() config.R2Settings {
	return config.R2Settings{
		AccountID:       "acct",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Bucket:          "media",
	}
}

func TestR2Upload(t *testing.T) {
	var heads, puts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertSigned(t, r)
		require.Equal(t, "/media/photo.png", r.URL.Path)
		switch r.Method {
		case http.MethodHead:
			heads++
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			puts++
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	u := NewR2(r2Config(), srv.Client())
	u.endpoint = srv.URL

	link, err := u.Upload(context.Background(), vault.NewFile("inbox/photo.png"), []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://media.acct.r2.cloudflarestorage.com/photo.png", link)
	assert.Equal(t, 1, heads)
	assert.Equal(t, 1, puts)
}

func TestR2UploadSkipsPutWhenObjectExists(t *testing.T) {
	var puts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			puts++
		}
	}))
	defer srv.Close()

	u := NewR2(r2Config(), srv.Client())
	u.endpoint = srv.URL

	_, err := u.Upload(context.Background(), vault.NewFile("photo.png"), []byte("data"))
	require.NoError(t, err)
	assert.Zero(t, puts)
}

func TestR2UploadIncompleteConfig(t *testing.T) {
	cfg := r2Config()
	cfg.AccountID = ""
	u := NewR2(cfg, http.DefaultClient)

	_, err := u.Upload(context.Background(), vault.NewFile("photo.png"), nil)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "r2", cfgErr.Provider)
}

func TestR2PublicURLPreference(t *testing.T) {
	cfg := r2Config()
	cfg.PublicDomain = "https://cdn.example.com"
	cfg.PublicURL = "https://pub-123.r2.dev"
	assert.Equal(t, "https://cdn.example.com/a%20b.png", (&R2{cfg: cfg}).publicURL("a b.png"))

	cfg.PublicDomain = ""
	assert.Equal(t, "https://pub-123.r2.dev/a%20b.png", (&R2{cfg: cfg}).publicURL("a b.png"))

	cfg.PublicURL = ""
	assert.Equal(t, "https://media.acct.r2.cloudflarestorage.com/a%20b.png", (&R2{cfg: cfg}).publicURL("a b.png"))
}
