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

// S3 uploads images to a generic S3-compatible bucket using signed PUT
// requests. The object key is the original file name, so uploading a
// different file under the same name replaces the prior content at that URL.
type S3 struct {
	cfg    config.S3Settings
	client *http.Client
}

// NewS3 builds the generic object-storage uploader.
func NewS3(cfg config.S3Settings, client *http.Client) *S3 {
	if cfg.Region == "" {
		cfg.Region = "auto"
	}
	return &S3{cfg: cfg, client: client}
}

// Upload PUTs the object and returns its public URL. When the key already
// exists at the target (signed HEAD), the upload is skipped.
func (u *S3) Upload(ctx context.Context, file *vault.File, data []byte) (string, error) {
	if u.cfg.AccessKeyID == "" || u.cfg.SecretAccessKey == "" || u.cfg.Bucket == "" {
		return "", &ConfigError{Provider: "s3", Reason: "access key, secret key, and bucket are required"}
	}
	target, err := u.requestURL(file.Name)
	if err != nil {
		return "", err
	}
	signer := sigv4.New(sigv4.Credentials{
		AccessKeyID:     u.cfg.AccessKeyID,
		SecretAccessKey: u.cfg.SecretAccessKey,
	}, u.cfg.Region)
	if !storageExists(ctx, u.client, signer, target) {
		if err := storagePut(ctx, u.client, signer, target, data, ContentType(file.Ext), "s3"); err != nil {
			return "", err
		}
	}
	return u.publicURL(file.Name), nil
}

// requestURL picks path-style addressing when an explicit endpoint demands it
// and virtual-host addressing otherwise.
func (u *S3) requestURL(key string) (*url.URL, error) {
	if u.cfg.Endpoint != "" {
		base, err := url.Parse(u.cfg.Endpoint)
		if err != nil || base.Host == "" {
			return nil, &ConfigError{Provider: "s3", Reason: fmt.Sprintf("invalid endpoint %q", u.cfg.Endpoint)}
		}
		if u.cfg.ForcePathStyle {
			return objectURL(base, u.cfg.Bucket, key), nil
		}
		virtual := *base
		virtual.Host = u.cfg.Bucket + "." + base.Host
		return objectURL(&virtual, key), nil
	}
	base := &url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%s.s3.%s.amazonaws.com", u.cfg.Bucket, u.cfg.Region),
	}
	return objectURL(base, key), nil
}

// publicURL prefers the configured public domain, then the raw endpoint with
// path-style bucket/key, then the provider-default AWS pattern.
func (u *S3) publicURL(key string) string {
	encoded := sigv4.EncodePath(key)
	if u.cfg.PublicDomain != "" {
		return trimSlash(u.cfg.PublicDomain) + "/" + encoded
	}
	if u.cfg.Endpoint != "" {
		return trimSlash(u.cfg.Endpoint) + "/" + u.cfg.Bucket + "/" + encoded
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, encoded)
}
