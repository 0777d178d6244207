// Package uploader holds the upload capability and its backend
// implementations: imgur, generic S3-compatible storage, Cloudflare R2, and
// YouTube. The registry picks an implementation from the file's category and
// the configured image provider.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JawadAlhindi/autoupload/internal/config"
	"github.com/JawadAlhindi/autoupload/internal/sigv4"
	"github.com/JawadAlhindi/autoupload/internal/vault"
)

// Uploader uploads one file and returns its public URL. An upload either
// fully completes or fails; no partial progress is exposed.
type Uploader interface {
	Upload(ctx context.Context, file *vault.File, data []byte) (string, error)
}

// TokenSource supplies a bearer credential for the video backend, refreshing
// it first when possible.
type TokenSource interface {
	EnsureValid(ctx context.Context) string
}

// ErrUnsupportedType reports a file whose extension belongs to no category.
var ErrUnsupportedType = errors.New("unsupported file type")

// ConfigError reports missing or incomplete credentials. It is returned
// before any network call is attempted.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s configuration incomplete: %s", e.Provider, e.Reason)
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s upload failed with status %d", e.Provider, e.StatusCode)
}

// Category splits uploads between the image and video pipelines.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryNone  Category = ""
)

var (
	imageExts = map[string]bool{
		"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true, "heic": true,
	}
	videoExts = map[string]bool{
		"mp4": true, "mov": true, "m4v": true,
	}
)

// Categorize maps a lowercased extension to its upload category.
func Categorize(ext string) Category {
	switch {
	case imageExts[ext]:
		return CategoryImage
	case videoExts[ext]:
		return CategoryVideo
	default:
		return CategoryNone
	}
}

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

// ContentType maps an extension to the MIME type sent on storage uploads.
// Unknown extensions fall back to a generic binary type.
func ContentType(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Registry dispatches files to the correct backend: extension decides the
// category, the configured provider decides the image implementation.
type Registry struct {
	settings func() config.Settings
	tokens   TokenSource
	client   *http.Client
}

// NewRegistry builds a Registry. The settings func is called per dispatch so
// each upload sees a current snapshot.
func NewRegistry(settings func() config.Settings, tokens TokenSource) *Registry {
	return &Registry{
		settings: settings,
		tokens:   tokens,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// ForFile selects an Uploader for the file, or ErrUnsupportedType.
func (r *Registry) ForFile(f *vault.File) (Uploader, error) {
	switch Categorize(f.Ext) {
	case CategoryVideo:
		return NewYouTube(r.tokens, r.client), nil
	case CategoryImage:
		st := r.settings()
		switch st.ImageProvider {
		case config.ProviderS3:
			return NewS3(st.S3, r.client), nil
		case config.ProviderR2:
			return NewR2(st.R2, r.client), nil
		default:
			return NewImgur(st.Imgur, r.client), nil
		}
	default:
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedType, f.Ext)
	}
}

// objectURL builds a request URL whose escaped path is produced by the same
// encoder the signature uses. Mismatched encodings make the remote reject the
// signature, so both sides must share these bytes.
func objectURL(base *url.URL, segments ...string) *url.URL {
	raw := strings.TrimSuffix(base.Path, "/")
	for _, seg := range segments {
		raw += "/" + seg
	}
	u := *base
	u.Path = raw
	u.RawPath = sigv4.EncodePath(raw)
	return &u
}

func trimSlash(s string) string {
	return strings.TrimSuffix(s, "/")
}
