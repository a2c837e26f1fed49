// Package spotify refreshes artist catalog metadata through the Spotify Web
// API using the client-credentials flow.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"liner/internal/research"
	"liner/internal/services"
)

const (
	defaultBaseURL     = "https://api.spotify.com"
	defaultTokenURL    = "https://accounts.spotify.com/api/token"
	defaultHTTPTimeout = 30 * time.Second

	// Refresh the token this long before Spotify's stated expiry.
	tokenSlack = 30 * time.Second
)

// Client calls the Spotify Web API. Access tokens are fetched lazily and
// cached until shortly before expiry; Client is safe for concurrent use.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTokenURL overrides the token endpoint (useful for tests/mocks).
func WithTokenURL(tokenURL string) Option {
	return func(c *Client) {
		tokenURL = strings.TrimSpace(tokenURL)
		if tokenURL != "" {
			c.tokenURL = tokenURL
		}
	}
}

// NewClient constructs a Spotify Web API client.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	client := &Client{
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}
	if c.clientID == "" || c.clientSecret == "" {
		return "", errors.New("spotify token: client credentials required")
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("spotify token: request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify token: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("spotify token: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("spotify token: decode response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("spotify token: empty access token")
	}
	c.accessToken = parsed.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(parsed.ExpiresIn)*time.Second - tokenSlack)
	return c.accessToken, nil
}

type searchResponse struct {
	Artists struct {
		Items []struct {
			Name       string   `json:"name"`
			Genres     []string `json:"genres"`
			Popularity int      `json:"popularity"`
			Followers  struct {
				Total int `json:"total"`
			} `json:"followers"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	} `json:"artists"`
}

// ArtistProfile searches the catalog for name and returns the best match:
// an exact case-insensitive name match when one exists, otherwise the top
// result. No results at all is ErrNotFound.
func (c *Client) ArtistProfile(ctx context.Context, name string) (*research.ArtistProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "spotify", "artist", "artist name required", nil)
	}
	accessToken, err := c.token(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "spotify", "artist", "token acquisition failed", err)
	}
	params := url.Values{
		"q":     {name},
		"type":  {"artist"},
		"limit": {"5"},
	}
	endpoint := c.baseURL + "/v1/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "spotify", "artist", "build search request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "spotify", "artist", "search request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "spotify", "artist", "read search body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrProvider, "spotify", "artist",
			fmt.Sprintf("search http %d", resp.StatusCode), errors.New(strings.TrimSpace(string(body))))
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrProvider, "spotify", "artist", "decode search response", err)
	}
	items := parsed.Artists.Items
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "spotify", "artist",
			fmt.Sprintf("no catalog match for %q", name), nil)
	}
	best := items[0]
	for _, item := range items {
		if strings.EqualFold(item.Name, name) {
			best = item
			break
		}
	}
	return &research.ArtistProfile{
		Name:       best.Name,
		Genres:     best.Genres,
		Popularity: best.Popularity,
		Followers:  best.Followers.Total,
		SpotifyURL: best.ExternalURLs.Spotify,
	}, nil
}
