package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "MovieFan/1.0"

	// Only the first page is ever requested
	firstPage = "1"

	endpointPopular  = "popular"
	endpointTopRated = "top_rated"

	maxErrorBody = 4 << 10
)

// Client implements domain.CatalogClient against a TMDB v3 compatible API
type Client struct {
	baseURL    *url.URL
	apiKey     string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new catalog API client
func NewClient(baseURL, apiKey, language string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog url %q must be absolute", baseURL)
	}
	return &Client{
		baseURL:  parsed,
		apiKey:   apiKey,
		language: language,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// FetchMovies returns the first page of popular movies
func (c *Client) FetchMovies(ctx context.Context) ([]domain.Movie, error) {
	var page MoviePage
	if err := c.get(ctx, endpointPopular, &page); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched popular movies", "page", page.Page, "count", len(page.Results))
	return MapMovies(page.Results), nil
}

// FetchRatings returns the first page of top-rated movies
func (c *Client) FetchRatings(ctx context.Context) ([]domain.MovieRating, error) {
	var page RatingPage
	if err := c.get(ctx, endpointTopRated, &page); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched top rated movies", "page", page.Page, "count", len(page.Results))
	return MapRatings(page.Results), nil
}

// get performs GET /movie/{endpoint} and decodes the body into dest.
// Every failure is reported as a network DataError.
func (c *Client) get(ctx context.Context, endpoint string, dest any) (err error) {
	start := time.Now()
	defer func() {
		result := "success"
		if err != nil {
			result = "failure"
		}
		metrics.CatalogRequests.WithLabelValues(endpoint, result).Inc()
		metrics.CatalogLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(endpoint), nil)
	if err != nil {
		return domain.NetworkError("failed to create request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	// Every call must reflect current server state
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	c.logger.Debug("catalog request", "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "endpoint", endpoint, "error", redact(err))
		return domain.NetworkError(fmt.Sprintf("could not reach catalog: %v", redact(err)), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := statusMessage(resp)
		c.logger.Error("catalog request error", "endpoint", endpoint, "status", resp.StatusCode, "message", msg)
		return domain.NetworkError(msg, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		c.logger.Error("JSON parse error", "endpoint", endpoint, "error", err)
		return domain.NetworkError("failed to parse catalog response", err)
	}
	return nil
}

func (c *Client) endpointURL(endpoint string) string {
	u := c.baseURL.JoinPath("movie", endpoint)
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)
	q.Set("page", firstPage)
	u.RawQuery = q.Encode()
	return u.String()
}

// statusMessage prefers the catalog's own status_message over the bare code
func statusMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var status statusResponse
	if json.Unmarshal(body, &status) == nil && status.StatusMessage != "" {
		return fmt.Sprintf("catalog returned %d: %s", resp.StatusCode, status.StatusMessage)
	}
	return fmt.Sprintf("catalog returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// redact strips the request URL (which carries the API key) from transport errors
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
