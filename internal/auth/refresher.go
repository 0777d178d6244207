// Package auth manages the YouTube OAuth credential pair: refreshing the
// short-lived access token before uploads and exchanging an authorization
// code for an initial token pair.
package auth

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/oauth2"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	uploadScope    = "https://www.googleapis.com/auth/youtube.upload"
	redirectURI    = "http://localhost:42813/callback"
)

// TokenStore is the slice of the config store the refresher needs.
type TokenStore interface {
	YouTubeTokens() (access, refresh, clientID, clientSecret string)
	SetYouTubeTokens(access, refresh string) error
}

// Refresher exchanges a stored refresh credential for a fresh access token.
// Refresh failures are deliberately non-fatal: a transient token-endpoint
// outage must not block an upload whose stored token may still be valid.
type Refresher struct {
	store    TokenStore
	endpoint oauth2.Endpoint
}

// NewRefresher builds a Refresher against Google's token endpoint.
func NewRefresher(store TokenStore) *Refresher {
	return &Refresher{
		store: store,
		endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}
}

func (r *Refresher) oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     r.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       []string{uploadScope},
	}
}

// EnsureValid returns a usable access token. Without a refresh credential the
// stored token is returned unmodified. With one, a refresh is attempted; on
// success the new token is persisted and returned, on failure the stale token
// is returned and the subsequent upload surfaces any real auth problem.
func (r *Refresher) EnsureValid(ctx context.Context) string {
	access, refresh, clientID, clientSecret := r.store.YouTubeTokens()
	if refresh == "" {
		return access
	}
	conf := r.oauthConfig(clientID, clientSecret)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		log.Printf("youtube token refresh failed, using stored token: %v", err)
		return access
	}
	if err := r.store.SetYouTubeTokens(tok.AccessToken, tok.RefreshToken); err != nil {
		log.Printf("persist refreshed youtube token: %v", err)
	}
	return tok.AccessToken
}

// AuthURL returns the consent URL for the authorization-code flow. Offline
// access with a forced consent screen is required to obtain a refresh token.
func (r *Refresher) AuthURL() (string, error) {
	_, _, clientID, clientSecret := r.store.YouTubeTokens()
	if clientID == "" || clientSecret == "" {
		return "", fmt.Errorf("youtube OAuth client ID and secret are not configured")
	}
	conf := r.oauthConfig(clientID, clientSecret)
	return conf.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Exchange trades an authorization code for a token pair and persists both.
func (r *Refresher) Exchange(ctx context.Context, code string) error {
	_, _, clientID, clientSecret := r.store.YouTubeTokens()
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("youtube OAuth client ID and secret are not configured")
	}
	conf := r.oauthConfig(clientID, clientSecret)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := r.store.SetYouTubeTokens(tok.AccessToken, tok.RefreshToken); err != nil {
		return fmt.Errorf("persist youtube tokens: %w", err)
	}
	return nil
}
