package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"ghtool/internal/ctxlog"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint
	DefaultBaseURL = "https://api.github.com/"

	// DefaultTimeout bounds a single request, including reading the body
	DefaultTimeout = 30 * time.Second

	mediaTypeV3 = "application/vnd.github.v3+json"
	userAgent   = "ghtool"
)

// Requester issues a single GET against the GitHub API
type Requester interface {
	Get(ctx context.Context, path string) Outcome
}

// ClientConfig configures a Client
type ClientConfig struct {
	// BaseURL of the REST API. Defaults to DefaultBaseURL.
	BaseURL string

	// Token is optional; requests are anonymous without it.
	Token string

	Timeout time.Duration
}

// Client implements Requester on top of go-github
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client
func NewClient(cfg ClientConfig) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var httpClient *http.Client
	if token := strings.TrimSpace(cfg.Token); token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = timeout

	client := github.NewClient(httpClient)
	client.UserAgent = userAgent

	if cfg.BaseURL != "" {
		baseURL, err := parseBaseURL(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = baseURL
	}

	return &Client{client: client}, nil
}

// parseBaseURL ensures the base URL is absolute and ends with a slash, as go-github requires
func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host are required", raw)
	}
	return u, nil
}

// BaseURL returns the API endpoint requests are sent to
func (c *Client) BaseURL() string {
	return c.client.BaseURL.String()
}

// Get performs one GET request and classifies the response. It never retries.
func (c *Client) Get(ctx context.Context, path string) Outcome {
	logger := ctxlog.FromContext(ctx)

	req, err := c.client.NewRequest(http.MethodGet, strings.TrimPrefix(path, "/"), nil)
	if err != nil {
		return Outcome{Kind: OutcomeAPIError, Cause: fmt.Errorf("failed to build request for %s: %w", path, err)}
	}
	req.Header.Set("Accept", mediaTypeV3)

	var payload json.RawMessage
	start := time.Now()
	resp, err := c.client.Do(ctx, req, &payload)

	outcome := classify(resp, err)
	if outcome.OK() {
		outcome.Payload = payload
	}

	logger.Debug("github request",
		"path", path,
		"outcome", outcome.Kind,
		"status", outcome.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return outcome
}

// RepositoryPath is the lookup path for a repository identifier
func RepositoryPath(id int64) string {
	return fmt.Sprintf("repositories/%d", id)
}

// SearchRepositoriesPath builds a repository search sorted by last update.
// Search rejects an empty query, so without a language the query is a
// predicate every repository satisfies.
func SearchRepositoriesPath(language string) string {
	query := "stars:>=0"
	if language != "" {
		query = "language:" + language
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "updated")
	return "search/repositories?" + params.Encode()
}
