package annotation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/necronomicon/backend/pkg/common"
	"github.com/necronomicon/backend/pkg/logger"

	"golang.org/x/sync/semaphore"
)

const (
	extractPath  = "/v1/extract"
	featuresPath = "/v1/features"
)

// Annotator parses document text into an annotation payload.
type Annotator interface {
	Parse(ctx context.Context, content string) (*Payload, error)
}

// Metrics holds request counters accumulated by a Client.
type Metrics struct {
	Requests   int   `json:"requests"`
	Failures   int   `json:"failures"`
	Tokens     int   `json:"tokens"`
	DurationMs int64 `json:"duration_ms"`
}

// Client talks to the remote annotation service over HTTP.
//
// A Client should be created using NewClient.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     Metrics
}

// NewClientParams contains configuration options for creating a Client.
//
// BaseURL is the service root, e.g. "http://localhost:8080".
// ApiKey is sent as a bearer token when set.
// MaxConcurrentRequests bounds the number of in-flight requests.
type NewClientParams struct {
	BaseURL string
	ApiKey  string
	Timeout time.Duration

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a Client for the annotation service at params.BaseURL.
func NewClient(params NewClientParams) (*Client, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("annotation service url is empty")
	}
	u, err := url.Parse(strings.TrimRight(params.BaseURL, "/"))
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 4
	}

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: params.Timeout,
			Transport: &headerTransport{
				headers: headers,
				rt:      http.DefaultTransport,
			},
		},
		reqLock: semaphore.NewWeighted(maxReq),
	}, nil
}

// Parse sends content to the extract endpoint and decodes the payload.
// Transport failures, non-2xx responses and undecodable bodies are returned
// wrapped in common.ErrIngestion. Parse never retries.
func (c *Client) Parse(ctx context.Context, content string) (*Payload, error) {
	body, err := json.Marshal(Request{Content: content})
	if err != nil {
		return nil, err
	}

	var payload Payload
	start := time.Now()
	err = c.do(ctx, http.MethodPost, extractPath, body, &payload)
	c.modifyMetrics(Metrics{
		Requests:   1,
		Failures:   btoi(err != nil),
		Tokens:     len(payload.Tokens),
		DurationMs: time.Since(start).Milliseconds(),
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("[Annotation] Parsed document", "tokens", len(payload.Tokens), "ents", len(payload.Entities), "sents", len(payload.Sentences))
	return &payload, nil
}

// Features returns the label catalogue of the annotation service.
func (c *Client) Features(ctx context.Context) (*Features, error) {
	var f Features
	if err := c.do(ctx, http.MethodGet, featuresPath, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.reqLock.Release(1)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrIngestion, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", common.ErrIngestion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Error("[Annotation] Request failed", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s %s returned %s: %s", common.ErrIngestion, method, path, resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", common.ErrIngestion, path, err)
	}
	return nil
}

// ResetMetrics clears all accumulated metrics.
func (c *Client) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = Metrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the metrics accumulated since the last reset.
func (c *Client) GetMetrics() Metrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *Client) modifyMetrics(m Metrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.Requests += m.Requests
	c.metrics.Failures += m.Failures
	c.metrics.Tokens += m.Tokens
	c.metrics.DurationMs += m.DurationMs
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
