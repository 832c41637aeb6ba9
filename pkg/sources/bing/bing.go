// Package bing searches the Bing Image Search v7 API for image URLs.
package bing

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rashset/pkg/logger"
	"rashset/pkg/ratelimit"
	"rashset/pkg/sources"
)

const (
	// Name identifies the source in logs and metadata rows
	Name = "Bing"

	DefaultEndpoint = "https://api.bing.microsoft.com/v7.0"
	DefaultMarket   = "en-US"
	DefaultCount    = 50

	// MaxCount is the largest page the API serves
	MaxCount = 150

	searchPath = "/images/search"
	keyHeader  = "Ocp-Apim-Subscription-Key"
)

// Options configures a Client
type Options struct {
	APIKey   string
	Endpoint string
	Market   string
	Count    int
	Timeout  time.Duration
}

// Client searches for images with one API request per query
type Client struct {
	api      *sources.Client
	endpoint string
	market   string
	count    int
	logger   logger.Logger
}

type searchResponse struct {
	Value []struct {
		ContentURL string `json:"contentUrl"`
	} `json:"value"`
}

// NewClient creates a Bing client. Empty options fall back to the defaults.
func NewClient(opts Options, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Market == "" {
		opts.Market = DefaultMarket
	}
	if opts.Count <= 0 {
		opts.Count = DefaultCount
	} else if opts.Count > MaxCount {
		opts.Count = MaxCount
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	api := sources.NewClient(Name, opts.Timeout, limiter, log)
	api.SetHeader(keyHeader, opts.APIKey)

	return &Client{
		api:      api,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		market:   opts.Market,
		count:    opts.Count,
		logger:   log,
	}
}

// Name returns the source name
func (c *Client) Name() string {
	return Name
}

// SearchURL builds the request URL for query
func (c *Client) SearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("mkt", c.market)
	params.Set("count", strconv.Itoa(c.count))

	return c.endpoint + searchPath + "?" + params.Encode()
}

// Search returns the content URLs of the image results for query. Results
// without a content URL are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	searchURL := c.SearchURL(query)

	var resp searchResponse
	if err := c.api.GetJSON(ctx, searchURL, &resp); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(resp.Value))
	for _, v := range resp.Value {
		if v.ContentURL != "" {
			urls = append(urls, v.ContentURL)
		}
	}

	c.logger.DebugWithFields("image search completed", map[string]interface{}{
		"source":  Name,
		"query":   query,
		"results": len(urls),
	})

	return urls, nil
}
