// Package reddit searches a subreddit for submission links through the
// Reddit OAuth API using a script-app password grant.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errs "rashset/pkg/errors"
	"rashset/pkg/logger"
	"rashset/pkg/ratelimit"
	"rashset/pkg/sources"
)

const (
	// Name identifies the source in logs and metadata rows
	Name = "Reddit"

	DefaultTokenURL  = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIBase   = "https://oauth.reddit.com"
	DefaultSubreddit = "all"
	DefaultLimit     = 50
	DefaultUserAgent = "rashset/0.1"

	// MaxLimit is the largest listing page the API serves
	MaxLimit = 100
)

// Options configures a Client
type Options struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	Subreddit    string
	Limit        int
	Timeout      time.Duration

	// TokenURL and APIBase override the production endpoints
	TokenURL string
	APIBase  string
}

// Client searches one subreddit. Every Search authenticates anew.
type Client struct {
	api  *sources.Client
	opts Options
	log  logger.Logger
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewClient creates a Reddit client. Empty options fall back to the defaults.
func NewClient(opts Options, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Subreddit == "" {
		opts.Subreddit = DefaultSubreddit
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	} else if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	opts.APIBase = strings.TrimRight(opts.APIBase, "/")
	if opts.APIBase == "" {
		opts.APIBase = DefaultAPIBase
	}

	api := sources.NewClient(Name, opts.Timeout, limiter, log)
	api.SetHeader("User-Agent", opts.UserAgent)

	return &Client{api: api, opts: opts, log: log}
}

// Name returns the source name
func (c *Client) Name() string {
	return Name
}

// Search returns the link URL of each submission matching query
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	searchURL := c.SearchURL(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, errs.AdapterError("build request", searchURL, 0, err)
	}
	req.Header.Set("Authorization", "bearer "+token)

	var result listing
	if err := c.api.DoJSON(req, &result); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(result.Data.Children))
	for _, child := range result.Data.Children {
		if child.Data.URL != "" {
			urls = append(urls, child.Data.URL)
		}
	}

	c.log.DebugWithFields("subreddit search completed", map[string]interface{}{
		"source":    Name,
		"subreddit": c.opts.Subreddit,
		"query":     query,
		"results":   len(urls),
	})

	return urls, nil
}

// SearchURL builds the listing request URL for query
func (c *Client) SearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.opts.Limit))
	params.Set("restrict_sr", "1")
	params.Set("raw_json", "1")

	return fmt.Sprintf("%s/r/%s/search?%s", c.opts.APIBase, url.PathEscape(c.opts.Subreddit), params.Encode())
}

// authenticate exchanges the account credentials for a bearer token
func (c *Client) authenticate(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.opts.Username)
	form.Set("password", c.opts.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errs.AdapterError("build token request", c.opts.TokenURL, 0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.opts.ClientID, c.opts.ClientSecret)

	var token tokenResponse
	if err := c.api.DoJSON(req, &token); err != nil {
		return "", err
	}

	// Bad account credentials come back as 200 with an error field
	if token.AccessToken == "" {
		reason := token.Error
		if reason == "" {
			reason = "empty access token"
		}
		return "", errs.AdapterError("authenticate", c.opts.TokenURL, http.StatusOK, errors.New(reason))
	}

	return token.AccessToken, nil
}
