package uploader

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/JawadAlhindi/autoupload/internal/sigv4"
)

// storageExists performs the optional signed HEAD pre-check against an object
// key. Any failure, transport or status, reports "not there" so the caller
// falls through to the upload instead of failing.
func storageExists(ctx context.Context, client *http.Client, signer *sigv4.Signer, u *url.URL) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return false
	}
	signer.Sign(req, nil, time.Now())
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// storagePut uploads the object with signed headers. Success is 200 or 204.
func storagePut(ctx context.Context, client *http.Client, signer *sigv4.Signer, u *url.URL, data []byte, contentType, provider string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build %s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))
	signer.Sign(req, data, time.Now())
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s upload: %w", provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &StatusError{Provider: provider, StatusCode: resp.StatusCode}
	}
	log.Printf("%s: put %s (%d bytes)", provider, u.Path, len(data))
	return nil
}
