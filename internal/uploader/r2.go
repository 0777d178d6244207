package uploader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/JawadAlhindi/autoupload/internal/config"
	"github.com/JawadAlhindi/autoupload/internal/sigv4"
	"github.com/JawadAlhindi/autoupload/internal/vault"
)

// r2Region is the literal region R2 expects in the credential scope.
const r2Region = "auto"

// R2 uploads images to Cloudflare R2. R2 is the fixed-endpoint storage
// variant: the endpoint derives from the account ID and access is always
// path-style.
type R2 struct {
	cfg      config.R2Settings
	endpoint string
	client   *http.Client
}

// NewR2 builds the R2 uploader.
func NewR2(cfg config.R2Settings, client *http.Client) *R2 {
	return &R2{
		cfg:      cfg,
		endpoint: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID),
		client:   client,
	}
}

// Upload PUTs the object and returns its public URL, skipping the PUT when
// the signed HEAD pre-check finds the key already present.
func (u *R2) Upload(ctx context.Context, file *vault.File, data []byte) (string, error) {
	if u.cfg.AccessKeyID == "" || u.cfg.SecretAccessKey == "" || u.cfg.Bucket == "" || u.cfg.AccountID == "" {
		return "", &ConfigError{Provider: "r2", Reason: "account ID, access key, secret key, and bucket are required"}
	}
	base, err := url.Parse(u.endpoint)
	if err != nil {
		return "", &ConfigError{Provider: "r2", Reason: fmt.Sprintf("invalid endpoint %q", u.endpoint)}
	}
	target := objectURL(base, u.cfg.Bucket, file.Name)
	signer := sigv4.New(sigv4.Credentials{
		AccessKeyID:     u.cfg.AccessKeyID,
		SecretAccessKey: u.cfg.SecretAccessKey,
	}, r2Region)
	if !storageExists(ctx, u.client, signer, target) {
		if err := storagePut(ctx, u.client, signer, target, data, ContentType(file.Ext), "r2"); err != nil {
			return "", err
		}
	}
	return u.publicURL(file.Name), nil
}

// publicURL prefers the custom public domain, then the alternate public URL,
// then the default bucket.account pattern (which requires public bucket
// access to resolve).
func (u *R2) publicURL(key string) string {
	encoded := sigv4.EncodePath(key)
	if u.cfg.PublicDomain != "" {
		return trimSlash(u.cfg.PublicDomain) + "/" + encoded
	}
	if u.cfg.PublicURL != "" {
		return trimSlash(u.cfg.PublicURL) + "/" + encoded
	}
	return fmt.Sprintf("https://%s.%s.r2.cloudflarestorage.com/%s", u.cfg.Bucket, u.cfg.AccountID, encoded)
}
