// Package appview provides the outbound client for the public AppView
// XRPC API (handle resolution, profiles, post threads) and the PDS sync
// blob endpoint.
//
// Every call is bounded by a single timeout and returns either parsed
// JSON or an error; failures are values for the resolution pipeline and
// are never retried here.
package appview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream calls.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blobdirect_upstream_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blobdirect_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})
)

// XRPC endpoint paths.
const (
	endpointResolveHandle = "/xrpc/com.atproto.identity.resolveHandle"
	endpointGetProfile    = "/xrpc/app.bsky.actor.getProfile"
	endpointGetPostThread = "/xrpc/app.bsky.feed.getPostThread"
	endpointGetBlob       = "/xrpc/com.atproto.sync.getBlob"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the AppView base URL, e.g. https://public.api.bsky.app
	BaseURL string

	// PDSURL is the base URL used for sync getBlob, e.g. https://bsky.social
	PDSURL string

	// UserAgent header sent on every request.
	UserAgent string

	// Timeout bounds each individual upstream call.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://public.api.bsky.app",
		PDSURL:    "https://bsky.social",
		UserAgent: "blob-direct/1.0",
		Timeout:   10 * time.Second,
	}
}

// Client is the upstream AppView/PDS client.
type Client struct {
	httpClient *http.Client

	// noRedirect is used for blob resolution, where the redirect target
	// itself is the answer and must not be followed.
	noRedirect *http.Client

	config Config
	logger zerolog.Logger
}

// New creates a new AppView client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("appview base URL is required")
	}
	if cfg.PDSURL == "" {
		return nil, fmt.Errorf("pds base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	logger := log.With().Str("component", "appview-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		noRedirect: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		config: cfg,
		logger: logger,
	}, nil
}

// ResolveHandle resolves a handle to its DID via
// com.atproto.identity.resolveHandle.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	var out resolveHandleResponse
	params := url.Values{"handle": []string{handle}}

	if err := c.getJSON(ctx, endpointResolveHandle, params, &out); err != nil {
		return "", err
	}
	if out.DID == "" {
		return "", fmt.Errorf("%w: empty did for handle %q", ErrUpstream, handle)
	}

	return out.DID, nil
}

// GetProfile fetches a profile view via app.bsky.actor.getProfile.
func (c *Client) GetProfile(ctx context.Context, did string) (*Profile, error) {
	var out Profile
	params := url.Values{"actor": []string{did}}

	if err := c.getJSON(ctx, endpointGetProfile, params, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetPostThread fetches a single post (depth 0) via
// app.bsky.feed.getPostThread.
func (c *Client) GetPostThread(ctx context.Context, did, postID string) (*PostThread, error) {
	postURI := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, postID)

	var out PostThread
	params := url.Values{
		"uri":   []string{postURI},
		"depth": []string{"0"},
	}

	if err := c.getJSON(ctx, endpointGetPostThread, params, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SyncBlobURL builds the PDS sync getBlob URL for a content-addressed blob.
func (c *Client) SyncBlobURL(did, cid string) string {
	params := url.Values{
		"did": []string{did},
		"cid": []string{cid},
	}
	return c.config.PDSURL + endpointGetBlob + "?" + params.Encode()
}

// ResolveBlob verifies a blob exists and returns its redirect target. The
// PDS answers getBlob with a redirect to CDN storage; that Location is
// the long-lived URL worth caching. A direct 200 means the PDS serves the
// bytes itself, so the getBlob URL is returned as-is.
func (c *Client) ResolveBlob(ctx context.Context, did, cid string) (string, error) {
	blobURL := c.SyncBlobURL(did, cid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, blobURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.noRedirect.Do(req)
	upstreamRequestDuration.WithLabelValues(endpointGetBlob).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(endpointGetBlob, "network_error").Inc()
		c.logger.Warn().Err(err).Str("did", did).Str("cid", cid).Msg("Blob request failed")
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	upstreamRequestsTotal.WithLabelValues(endpointGetBlob, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc, err := resp.Location()
		if err != nil {
			return "", fmt.Errorf("%w: redirect without location", ErrUpstream)
		}
		return loc.String(), nil
	case resp.StatusCode == http.StatusOK:
		return blobURL, nil
	default:
		return "", &StatusError{Endpoint: endpointGetBlob, StatusCode: resp.StatusCode}
	}
}

// getJSON performs a GET against an XRPC endpoint and decodes the JSON
// response into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := c.config.BaseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("endpoint", endpoint).Msg("Executing upstream request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	upstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Upstream request failed")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Upstream non-success response")
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	return nil
}

// SetHTTPClient sets custom HTTP clients (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
