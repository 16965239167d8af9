// Package client implements the rate-limited Sportmonks API client used
// by every sync mode. Requests are retried on transient failures and
// paced against the quota the API reports in each payload.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/metrics"
)

// RateLimit is the quota descriptor embedded in every successful
// Sportmonks payload.
type RateLimit struct {
	Remaining       *int   `json:"remaining"`
	ResetsInSeconds *int   `json:"resets_in_seconds"`
	RequestedEntity string `json:"requested_entity"`
}

// Pagination is the paging descriptor on list endpoints.
type Pagination struct {
	HasMore  bool `json:"has_more"`
	NextPage any  `json:"next_page"`
}

// Envelope is the decoded response body of a Sportmonks call.
type Envelope struct {
	Data       []map[string]any `json:"-"`
	Pagination *Pagination      `json:"pagination"`
	RateLimit  *RateLimit       `json:"rate_limit"`
}

// HTTPMetric is one entry of the per-run metrics trail. The trail is an
// audit side channel; recording it never affects control flow.
type HTTPMetric struct {
	Path      string `json:"path"`
	Status    int    `json:"status"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Attempt   int    `json:"attempt"`
}

// Trail accumulates per-request metrics across one invocation.
type Trail struct {
	HTTP []HTTPMetric
}

func (t *Trail) record(path string, status int, elapsed time.Duration, attempt int) {
	if t == nil {
		return
	}
	t.HTTP = append(t.HTTP, HTTPMetric{
		Path:      path,
		Status:    status,
		ElapsedMS: elapsed.Milliseconds(),
		Attempt:   attempt,
	})
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	APIToken      string
	Timeout       time.Duration
	PerPage       int
	MaxRetries    int
	RetryBase     time.Duration
	RateThreshold int
	RateWait      time.Duration
}

// Client is the Sportmonks API client
type Client struct {
	baseURL       string
	apiToken      string
	httpClient    *http.Client
	perPage       int
	maxRetries    int
	retryBase     time.Duration
	rateThreshold int
	rateWait      time.Duration
}

// MaxMultiBatch is the upstream's per-call maximum for multi-id lookups.
const MaxMultiBatch = 50

// NewClient creates a new Sportmonks API client
func NewClient(opts Options) *Client {
	if opts.PerPage <= 0 || opts.PerPage > MaxMultiBatch {
		opts.PerPage = MaxMultiBatch
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}
	if opts.RateWait <= 0 {
		opts.RateWait = time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		apiToken:      opts.APIToken,
		perPage:       opts.PerPage,
		maxRetries:    opts.MaxRetries,
		retryBase:     opts.RetryBase,
		rateThreshold: opts.RateThreshold,
		rateWait:      opts.RateWait,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Get performs a GET request with retry logic and quota pacing. Transient
// responses (429 and 5xx) are retried up to MaxRetries with exponential
// backoff; any other non-2xx response fails immediately with the body as
// error detail. After a successful response the embedded rate_limit
// descriptor may pause the client before the next call.
func (c *Client) Get(ctx context.Context, path string, params url.Values, trail *Trail) (*Envelope, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))

	query := url.Values{}
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	query.Set("api_token", c.apiToken)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			// Exponential backoff: base, 2*base, 4*base
			backoff := c.retryBase * time.Duration(1<<uint(attempt-2))
			log.Info().
				Str("path", path).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.URL.RawQuery = query.Encode()
		req.Header.Set("Accept", "application/json")

		started := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			trail.record(path, 0, time.Since(started), attempt)
			metrics.RecordAPICall(path, "network_error", time.Since(started).Seconds())
			lastErr = fmt.Errorf("API request failed: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		elapsed := time.Since(started)
		trail.record(path, resp.StatusCode, elapsed, attempt)
		metrics.RecordAPICall(path, strconv.Itoa(resp.StatusCode), elapsed.Seconds())
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			env, err := decodeEnvelope(body)
			if err != nil {
				return nil, fmt.Errorf("failed to decode response for %s: %w", path, err)
			}
			if err := c.maybePause(ctx, env.RateLimit, path); err != nil {
				return nil, err
			}
			return env, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))
			metrics.RecordRetry(path)
			if attempt < c.maxRetries {
				log.Warn().
					Str("path", path).
					Int("status", resp.StatusCode).
					Int("attempt", attempt).
					Msg("Received retryable error, will retry")
				continue
			}
			return nil, fmt.Errorf("exhausted %d attempts: %w", c.maxRetries, lastErr)

		default:
			// Permanent upstream error, no retry
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, lastErr
}

// maybePause throttles when the reported remaining quota is at or below
// the threshold, waiting long enough to spread the remaining calls evenly
// until the quota resets.
func (c *Client) maybePause(ctx context.Context, rl *RateLimit, path string) error {
	wait := rateLimitWait(rl, c.rateThreshold, c.rateWait)
	if wait <= 0 {
		return nil
	}
	log.Info().
		Str("path", path).
		Int("remaining", *rl.Remaining).
		Dur("wait", wait).
		Msg("Rate limit low, pausing")
	metrics.RecordRatePause(path)
	return sleep(ctx, wait)
}

// rateLimitWait computes the pause before the next call. With remaining
// calls and resets_in_seconds left in the window, even spacing of
// ceil(resets*1000/remaining) ms exhausts the quota exactly at reset,
// avoiding both starvation and burst rejection. The fixed wait is the
// floor, and also the fallback when the reset horizon is unknown or the
// quota already hit zero.
func rateLimitWait(rl *RateLimit, threshold int, fixedWait time.Duration) time.Duration {
	if rl == nil || rl.Remaining == nil {
		return 0
	}
	if *rl.Remaining > threshold {
		return 0
	}
	wait := fixedWait
	if rl.ResetsInSeconds != nil && *rl.Remaining > 0 {
		ms := math.Ceil(float64(*rl.ResetsInSeconds) * 1000 / float64(*rl.Remaining))
		if spacing := time.Duration(ms) * time.Millisecond; spacing > wait {
			wait = spacing
		}
	}
	return wait
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// decodeEnvelope tolerates data being either an object or an array; the
// multi-id endpoints return arrays, single lookups return one object.
func decodeEnvelope(body []byte) (*Envelope, error) {
	var raw struct {
		Data       json.RawMessage `json:"data"`
		Pagination *Pagination     `json:"pagination"`
		RateLimit  *RateLimit      `json:"rate_limit"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	env := &Envelope{Pagination: raw.Pagination, RateLimit: raw.RateLimit}
	if len(raw.Data) == 0 {
		return env, nil
	}
	trimmed := strings.TrimSpace(string(raw.Data))
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(raw.Data, &env.Data); err != nil {
			return nil, err
		}
	case strings.HasPrefix(trimmed, "{"):
		var one map[string]any
		if err := json.Unmarshal(raw.Data, &one); err != nil {
			return nil, err
		}
		env.Data = []map[string]any{one}
	}
	return env, nil
}

// FetchPaged fetches every page of a list endpoint, following next_page
// until the API reports has_more=false.
func (c *Client) FetchPaged(ctx context.Context, path string, params url.Values, perPage int, trail *Trail) ([]map[string]any, error) {
	if perPage <= 0 {
		perPage = c.perPage
	}
	var results []map[string]any
	for page := 1; ; page++ {
		query := url.Values{}
		for key, values := range params {
			query[key] = values
		}
		query.Set("per_page", strconv.Itoa(perPage))
		query.Set("page", strconv.Itoa(page))

		env, err := c.Get(ctx, path, query, trail)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s page %d: %w", path, page, err)
		}
		results = append(results, env.Data...)

		if env.Pagination == nil || !env.Pagination.HasMore || env.Pagination.NextPage == nil {
			break
		}
	}
	return results, nil
}

// CollectFixturesAfter pages through fixtures with id greater than
// startAfter, advancing the cursor to each page's maximum id, until limit
// fixtures are collected or a short page signals the end of the stream.
// Returns the fixtures and the last id observed.
func (c *Client) CollectFixturesAfter(ctx context.Context, startAfter int64, limit int, trail *Trail) ([]map[string]any, int64, error) {
	var fixtures []map[string]any
	cursor := startAfter

	for page := 1; len(fixtures) < limit; page++ {
		perPage := c.perPage
		if remaining := limit - len(fixtures); remaining < perPage {
			perPage = remaining
		}

		params := url.Values{}
		params.Set("filters", fmt.Sprintf("IdAfter:%d", cursor))
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))

		env, err := c.Get(ctx, "football/fixtures", params, trail)
		if err != nil {
			return nil, cursor, fmt.Errorf("failed to collect fixtures after %d: %w", cursor, err)
		}
		if len(env.Data) == 0 {
			break
		}

		fixtures = append(fixtures, env.Data...)
		for _, fixture := range env.Data {
			if id, ok := fixture["id"].(float64); ok && int64(id) > cursor {
				cursor = int64(id)
			}
		}

		if len(env.Data) < c.perPage {
			break
		}
	}

	return fixtures, cursor, nil
}

// CollectFixturesBetween fetches every fixture in the inclusive date
// range. Dates are YYYY-MM-DD.
func (c *Client) CollectFixturesBetween(ctx context.Context, fromDate, toDate string, trail *Trail) ([]map[string]any, error) {
	path := fmt.Sprintf("football/fixtures/between/%s/%s", fromDate, toDate)
	fixtures, err := c.FetchPaged(ctx, path, nil, c.perPage, trail)
	if err != nil {
		return nil, fmt.Errorf("failed to collect fixtures between %s and %s: %w", fromDate, toDate, err)
	}
	return fixtures, nil
}

// FetchFixturesMulti fetches up to MaxMultiBatch fixtures by id with the
// given include expansion.
func (c *Client) FetchFixturesMulti(ctx context.Context, ids []int64, include string, trail *Trail) ([]map[string]any, error) {
	path := fmt.Sprintf("football/fixtures/multi/%s", joinIDs(ids))
	params := url.Values{}
	if include != "" {
		params.Set("include", include)
	}
	env, err := c.Get(ctx, path, params, trail)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures multi: %w", err)
	}
	return env.Data, nil
}

// FetchRefereesMulti fetches referee master records by id.
func (c *Client) FetchRefereesMulti(ctx context.Context, ids []int64, trail *Trail) ([]map[string]any, error) {
	path := fmt.Sprintf("football/referees/multi/%s", joinIDs(ids))
	env, err := c.Get(ctx, path, nil, trail)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch referees multi: %w", err)
	}
	return env.Data, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
