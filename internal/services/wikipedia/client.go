// Package wikipedia implements encyclopedia search and article extraction
// against the MediaWiki action API.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"liner/internal/research"
	"liner/internal/services"
)

const (
	defaultBaseURL     = "https://en.wikipedia.org"
	defaultUserAgent   = "liner/1.0 (artist card enrichment)"
	defaultHTTPTimeout = 30 * time.Second
	apiPath            = "/w/api.php"
)

// Client talks to the MediaWiki API of one wiki.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
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

// WithBaseURL overrides the wiki base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header. Wikimedia asks API clients
// to identify themselves.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		agent = strings.TrimSpace(agent)
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// NewClient constructs a MediaWiki API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// TitleFromURL extracts the page title from a /wiki/ URL. Returns "" when
// the URL does not name an article.
func TitleFromURL(pageURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return ""
	}
	const prefix = "/wiki/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return ""
	}
	title := strings.TrimPrefix(parsed.Path, prefix)
	title, err = url.PathUnescape(title)
	if err != nil {
		return ""
	}
	return title
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Missing *struct{} `json:"missing,omitempty"`
		} `json:"pages"`
	} `json:"query"`
}

// ArticleText fetches the plain-text extract of the article behind pageURL.
// Redirects are followed server-side. Missing pages return ErrNotFound.
func (c *Client) ArticleText(ctx context.Context, pageURL string) (string, error) {
	title := TitleFromURL(pageURL)
	if title == "" {
		return "", services.Wrap(services.ErrValidation, "wikipedia", "article",
			fmt.Sprintf("not an article URL: %s", pageURL), nil)
	}
	params := url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"format":      {"json"},
		"titles":      {title},
	}
	body, err := c.get(ctx, params)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "wikipedia", "article", "extract request failed", err)
	}
	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", services.Wrap(services.ErrProvider, "wikipedia", "article", "decode extract response", err)
	}
	for _, page := range parsed.Query.Pages {
		if page.Missing != nil {
			continue
		}
		text := strings.TrimSpace(page.Extract)
		if text != "" {
			return text, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "wikipedia", "article",
		fmt.Sprintf("no article text for %q", title), nil)
}

// Search runs an opensearch title query and returns up to limit hits.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]research.SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"action": {"opensearch"},
		"search": {query},
		"limit":  {strconv.Itoa(limit)},
		"format": {"json"},
	}
	body, err := c.get(ctx, params)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "wikipedia", "search", "search request failed", err)
	}
	// Opensearch responds with a positional array:
	// [query, [titles...], [descriptions...], [urls...]]
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) < 4 {
		return nil, services.Wrap(services.ErrProvider, "wikipedia", "search", "decode search response", err)
	}
	var titles, descriptions, urls []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, services.Wrap(services.ErrProvider, "wikipedia", "search", "decode search titles", err)
	}
	if err := json.Unmarshal(raw[2], &descriptions); err != nil {
		return nil, services.Wrap(services.ErrProvider, "wikipedia", "search", "decode search descriptions", err)
	}
	if err := json.Unmarshal(raw[3], &urls); err != nil {
		return nil, services.Wrap(services.ErrProvider, "wikipedia", "search", "decode search urls", err)
	}
	hits := make([]research.SearchHit, 0, len(titles))
	for i, title := range titles {
		hit := research.SearchHit{Title: title}
		if i < len(descriptions) {
			hit.Description = descriptions[i]
		}
		if i < len(urls) {
			hit.URL = urls[i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + apiPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
