package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JawadAlhindi/autoupload/internal/config"
	"github.com/JawadAlhindi/autoupload/internal/vault"
)

const defaultImgurAPI = "https://api.imgur.com"

// Imgur uploads images via the imgur API using a client-ID credential.
type Imgur struct {
	clientID string
	baseURL  string
	client   *http.Client
}

// NewImgur builds an imgur uploader.
func NewImgur(cfg config.ImgurSettings, client *http.Client) *Imgur {
	return &Imgur{
		clientID: cfg.ClientID,
		baseURL:  defaultImgurAPI,
		client:   client,
	}
}

// Upload POSTs the raw image bytes and returns the hosted link.
func (u *Imgur) Upload(ctx context.Context, file *vault.File, data []byte) (string, error) {
	if u.clientID == "" {
		return "", &ConfigError{Provider: "imgur", Reason: "client ID is not set"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/3/image", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build imgur request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.clientID)
	req.Header.Set("Content-Type", ContentType(file.Ext))

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgur upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Provider: "imgur", StatusCode: resp.StatusCode}
	}
	var body struct {
		Data struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode imgur response: %w", err)
	}
	if body.Data.Link == "" {
		return "", fmt.Errorf("imgur response missing link for %s", file.Name)
	}
	return body.Data.Link, nil
}
