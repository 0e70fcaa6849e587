package booru

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"boorufetch/pkg/errors"
	"boorufetch/pkg/logger"
)

// Client is an HTTP client for the board's JSON API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	username   string
	apiKey     string
	limiter    *rate.Limiter
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the board URL
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithCredentialParams attaches login parameters to every request
func WithCredentialParams(username, apiKey string) Option {
	return func(c *Client) {
		c.username = username
		c.apiKey = apiKey
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.headers["User-Agent"] = ua }
}

// WithRequestsPerMinute paces requests with a token bucket
func WithRequestsPerMinute(rpm, burst int) Option {
	return func(c *Client) {
		if rpm > 0 {
			if burst <= 0 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
		}
	}
}

// NewClient creates a new board API client
func NewClient(timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "boorufetch/1.0",
		},
		baseURL: DefaultBaseURL,
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured board URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs a paced GET with the configured headers and credentials
func (c *Client) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Transport(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, WithCredentials(rawURL, c.username, c.apiKey), nil)
	if err != nil {
		return nil, &errors.Error{Type: errors.ErrorTypeUnknown, Message: err.Error()}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    rawURL,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Transport(err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      rawURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus maps a non-success status to a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	c.logger.WarnWithFields("non-success response", map[string]interface{}{
		"status":      resp.StatusCode,
		"status_text": StatusText(resp.StatusCode),
		"url":         resp.Request.URL.Path,
	})
	return errors.Status(resp.StatusCode, StatusText(resp.StatusCode))
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, rawURL string, target interface{}) error {
	resp, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Transport(err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.Remote("failed to parse JSON: %v", err)
	}

	return nil
}

// VerifyCredentials checks the configured login against the board. A rejection
// is fatal to the whole run, so any failure maps to an auth error.
func (c *Client) VerifyCredentials(ctx context.Context) error {
	resp, err := c.doRequest(ctx, UsersURL(c.baseURL))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Auth(resp.StatusCode, StatusText(resp.StatusCode))
	}

	c.logger.Info("credentials verified")
	return nil
}

// FetchTag fetches the tag index entry for one tag name
func (c *Client) FetchTag(ctx context.Context, tag string) (*Tag, error) {
	var tags []Tag
	if err := c.GetJSON(ctx, TagsURL(c.baseURL, tag), &tags); err != nil {
		return nil, err
	}

	if len(tags) == 0 {
		return nil, errors.Remote("tag index returned no entry for %q", tag)
	}

	return &tags[0], nil
}

// FetchPage fetches one page of posts for a search query
func (c *Client) FetchPage(ctx context.Context, q PageQuery) ([]Post, error) {
	var posts []Post
	if err := c.GetJSON(ctx, PostsURL(c.baseURL, q), &posts); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("page fetched", map[string]interface{}{
		"tag":   q.Tag,
		"page":  q.Page,
		"count": len(posts),
	})

	return posts, nil
}

// DownloadAsset downloads the asset at the given URL
func (c *Client) DownloadAsset(ctx context.Context, assetURL string) ([]byte, error) {
	resp, err := c.doRequest(ctx, assetURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Transport(err)
	}

	c.logger.DebugWithFields("asset downloaded", map[string]interface{}{
		"url":  assetURL,
		"size": len(data),
	})

	return data, nil
}
