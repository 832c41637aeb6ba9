package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "rashset/pkg/errors"
	"rashset/pkg/logger"
	"rashset/pkg/ratelimit"
)

// maxBodyBytes caps API response bodies
const maxBodyBytes = 8 << 20

// Client performs paced API requests on behalf of one source
type Client struct {
	name       string
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a client for the named source. A nil limiter disables
// pacing and a nil logger uses the global one.
func NewClient(name string, timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	return &Client{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"Accept":          "application/json",
			"Accept-Language": "en-US,en;q=0.9",
		},
		limiter: limiter,
		logger:  log,
	}
}

// SetHeader sets a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Do waits for request budget, applies the default headers, and sends req.
// Headers already set on req take precedence.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	waited, err := c.limiter.Wait(req.Context())
	if err != nil {
		return nil, errs.AdapterError("wait for rate limit", req.URL.String(), 0, err)
	}
	if waited > 0 {
		logger.LogRateLimit(c.logger, req.URL.Host, waited)
	}

	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"source": c.name,
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"source":   c.name,
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.AdapterError(req.Method, req.URL.String(), 0, err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"source":   c.name,
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// DoJSON sends req and decodes a successful JSON response into target
func (c *Client) DoJSON(req *http.Request, target interface{}) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(req, resp); err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errs.AdapterError("read body", req.URL.String(), resp.StatusCode, err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"source":       c.name,
			"url":          req.URL.String(),
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.AdapterError("parse JSON", req.URL.String(), resp.StatusCode, err)
	}

	return nil
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.AdapterError("build request", url, 0, err)
	}
	return c.DoJSON(req, target)
}

// checkResponseStatus maps non-2xx statuses to adapter errors
func (c *Client) checkResponseStatus(req *http.Request, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	fields := map[string]interface{}{
		"source": c.name,
		"status": resp.StatusCode,
		"url":    req.URL.String(),
	}

	var reason string
	switch {
	case errs.IsAuthStatusCode(resp.StatusCode):
		reason = "credentials rejected"
		c.logger.WarnWithFields("authentication error", fields)
	case resp.StatusCode == http.StatusTooManyRequests:
		reason = "rate limit exceeded"
		c.logger.WarnWithFields("rate limit exceeded", fields)
	case resp.StatusCode >= 500:
		reason = "server error"
		c.logger.ErrorWithFields("server error", fields)
	default:
		reason = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		c.logger.ErrorWithFields("unexpected API error", fields)
	}

	return errs.AdapterError(req.Method, req.URL.String(), resp.StatusCode, fmt.Errorf("%s", reason))
}
