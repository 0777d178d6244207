package uploader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JawadAlhindi/autoupload/internal/config"
	"github.com/JawadAlhindi/autoupload/internal/vault"
)

func TestImgurUpload(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/3/image", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"data":{"link":"https://i.imgur.com/abc123.png"}}`))
	}))
	defer srv.Close()

	u := NewImgur(config.ImgurSettings{ClientID: "cid"}, srv.Client())
	u.baseURL = srv.URL

	link, err := u.Upload(context.Background(), vault.NewFile("img/photo.png"), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://i.imgur.com/abc123.png", link)
	assert.Equal(t, "Client-ID cid", gotAuth)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("png-bytes"), gotBody)
}

func TestImgurUploadMissingClientID(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	u := NewImgur(config.ImgurSettings{}, srv.Client())
	u.baseURL = srv.URL

	_, err := u.Upload(context.Background(), vault.NewFile("photo.png"), nil)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "imgur", cfgErr.Provider)
	assert.Zero(t, requests, "credential checks happen before any network call")
}

func TestImgurUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	u := NewImgur(config.ImgurSettings{ClientID: "cid"}, srv.Client())
	u.baseURL = srv.URL

	_, err := u.Upload(context.Background(), vault.NewFile("photo.png"), nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestImgurUploadMissingLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	u := NewImgur(config.ImgurSettings{ClientID: "cid"}, srv.Client())
	u.baseURL = srv.URL

	_, err := u.Upload(context.Background(), vault.NewFile("photo.png"), nil)
	assert.Error(t, err)
}
