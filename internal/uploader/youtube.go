package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JawadAlhindi/autoupload/internal/vault"
)

const defaultYouTubeInitURL = "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"

// YouTube uploads videos with the two-step resumable handshake: an initiate
// POST that yields the upload URL in the Location header, then a single PUT
// of the binary body. Resumption of interrupted uploads is out of scope.
type YouTube struct {
	tokens  TokenSource
	client  *http.Client
	initURL string
}

// NewYouTube builds the video uploader.
func NewYouTube(tokens TokenSource, client *http.Client) *YouTube {
	return &YouTube{
		tokens:  tokens,
		client:  client,
		initURL: defaultYouTubeInitURL,
	}
}

type youtubeMetadata struct {
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
}

// Upload sends the video and returns a youtu.be link. The access token is
// refreshed first when a refresh credential is available.
func (u *YouTube) Upload(ctx context.Context, file *vault.File, data []byte) (string, error) {
	token := u.tokens.EnsureValid(ctx)
	if token == "" {
		return "", &ConfigError{Provider: "youtube", Reason: "access token is not set"}
	}

	var meta youtubeMetadata
	meta.Snippet.Title = file.Name
	meta.Snippet.Description = "Uploaded by autoupload"
	meta.Status.PrivacyStatus = "unlisted"
	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode video metadata: %w", err)
	}

	initReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.initURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build init request: %w", err)
	}
	initReq.Header.Set("Authorization", "Bearer "+token)
	initReq.Header.Set("Content-Type", "application/json")
	initResp, err := u.client.Do(initReq)
	if err != nil {
		return "", fmt.Errorf("youtube init: %w", err)
	}
	defer initResp.Body.Close()
	if initResp.StatusCode < 200 || initResp.StatusCode > 299 {
		return "", &StatusError{Provider: "youtube", StatusCode: initResp.StatusCode}
	}
	uploadURL := initResp.Header.Get("Location")
	if uploadURL == "" {
		return "", fmt.Errorf("youtube init response missing upload location")
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	putReq.Header.Set("Authorization", "Bearer "+token)
	putReq.Header.Set("Content-Type", "video/*")
	putReq.ContentLength = int64(len(data))
	putResp, err := u.client.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}
	defer putResp.Body.Close()
	if putResp.StatusCode < 200 || putResp.StatusCode > 299 {
		return "", &StatusError{Provider: "youtube", StatusCode: putResp.StatusCode}
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(putResp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode youtube response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("youtube response missing video id for %s", file.Name)
	}
	return "https://youtu.be/" + result.ID, nil
}
