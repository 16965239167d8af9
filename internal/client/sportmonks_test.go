package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:       baseURL,
		APIToken:      "test-token",
		Timeout:       5 * time.Second,
		PerPage:       2,
		MaxRetries:    3,
		RetryBase:     time.Millisecond,
		RateThreshold: 0,
		RateWait:      time.Millisecond,
	})
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.URL.Query().Get("api_token"), "token is attached to every request")
		fmt.Fprint(w, `{"data":{"id":1,"name":"x"},"rate_limit":{"remaining":2000,"resets_in_seconds":3600}}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	trail := &Trail{}
	env, err := c.Get(context.Background(), "football/fixtures/1", nil, trail)
	require.NoError(t, err)
	require.Len(t, env.Data, 1, "single object data is wrapped into a slice")
	assert.Equal(t, 1.0, env.Data[0]["id"])

	require.Len(t, trail.HTTP, 1)
	assert.Equal(t, "football/fixtures/1", trail.HTTP[0].Path)
	assert.Equal(t, http.StatusOK, trail.HTTP[0].Status)
	assert.Equal(t, 1, trail.HTTP[0].Attempt)
}

func TestGet_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	trail := &Trail{}
	_, err := c.Get(context.Background(), "football/fixtures", nil, trail)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "two transient failures then success")
	require.Len(t, trail.HTTP, 3, "every attempt is recorded in the trail")
	assert.Equal(t, 3, trail.HTTP[2].Attempt)
}

func TestGet_ExhaustsRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Get(context.Background(), "football/fixtures", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted 3 attempts")
	assert.Equal(t, int32(3), calls.Load(), "attempts stop exactly at MaxRetries")
}

func TestGet_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"invalid plan"}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Get(context.Background(), "football/fixtures", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), calls.Load(), "4xx is permanent, never retried")
}

func TestFetchPaged_FollowsHasMore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			fmt.Fprint(w, `{"data":[{"id":1},{"id":2}],"pagination":{"has_more":true,"next_page":"2"}}`)
		case "2":
			fmt.Fprint(w, `{"data":[{"id":3}],"pagination":{"has_more":false,"next_page":null}}`)
		default:
			t.Errorf("unexpected page %s", page)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	results, err := c.FetchPaged(context.Background(), "core/countries", nil, 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 3, "pages are followed until has_more is false")
}

func TestCollectFixturesAfter(t *testing.T) {
	var filters []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filters = append(filters, r.URL.Query().Get("filters"))
		switch r.URL.Query().Get("filters") {
		case "IdAfter:100":
			fmt.Fprint(w, `{"data":[{"id":101},{"id":102}]}`)
		default:
			// Short page terminates the walk.
			fmt.Fprint(w, `{"data":[{"id":103}]}`)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	fixtures, lastID, err := c.CollectFixturesAfter(context.Background(), 100, 10, nil)
	require.NoError(t, err)
	assert.Len(t, fixtures, 3)
	assert.Equal(t, int64(103), lastID, "cursor tracks the maximum id observed")
	require.Len(t, filters, 2)
	assert.Equal(t, "IdAfter:100", filters[0])
	assert.Equal(t, "IdAfter:102", filters[1], "the filter advances to the previous page's maximum")
}

func TestCollectFixturesAfter_RespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perPage := r.URL.Query().Get("per_page")
		n := 0
		fmt.Sscanf(perPage, "%d", &n)
		items := make([]map[string]any, n)
		for i := range items {
			items[i] = map[string]any{"id": float64(1000 + i)}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": items})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	fixtures, _, err := c.CollectFixturesAfter(context.Background(), 0, 3, nil)
	require.NoError(t, err)
	assert.Len(t, fixtures, 3, "collection stops at the limit")
}

func TestFetchFixturesMulti_BuildsPath(t *testing.T) {
	var gotPath, gotInclude string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInclude = r.URL.Query().Get("include")
		fmt.Fprint(w, `{"data":[{"id":1},{"id":2}]}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	fixtures, err := c.FetchFixturesMulti(context.Background(), []int64{1, 2}, "events;statistics.type", nil)
	require.NoError(t, err)
	assert.Len(t, fixtures, 2)
	assert.Equal(t, "/football/fixtures/multi/1,2", gotPath)
	assert.Equal(t, "events;statistics.type", gotInclude)
}

func TestRateLimitWait(t *testing.T) {
	intp := func(v int) *int { return &v }
	fixed := time.Second

	// Plenty of quota left: no pause.
	assert.Equal(t, time.Duration(0),
		rateLimitWait(&RateLimit{Remaining: intp(500), ResetsInSeconds: intp(3600)}, 50, fixed))

	// No descriptor at all: no pause.
	assert.Equal(t, time.Duration(0), rateLimitWait(nil, 50, fixed))
	assert.Equal(t, time.Duration(0), rateLimitWait(&RateLimit{}, 50, fixed))

	// 10 calls left, 60s to reset: spacing of 6s beats the fixed wait.
	wait := rateLimitWait(&RateLimit{Remaining: intp(10), ResetsInSeconds: intp(60)}, 50, fixed)
	assert.Equal(t, 6*time.Second, wait)

	// Short reset horizon: the fixed wait is the floor.
	wait = rateLimitWait(&RateLimit{Remaining: intp(10), ResetsInSeconds: intp(1)}, 50, fixed)
	assert.Equal(t, fixed, wait)

	// Quota exhausted: fall back to the fixed wait.
	wait = rateLimitWait(&RateLimit{Remaining: intp(0), ResetsInSeconds: intp(60)}, 50, fixed)
	assert.Equal(t, fixed, wait)
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := decodeEnvelope([]byte(`{"data":[{"id":1}],"pagination":{"has_more":true,"next_page":2}}`))
	require.NoError(t, err)
	assert.Len(t, env.Data, 1)
	require.NotNil(t, env.Pagination)
	assert.True(t, env.Pagination.HasMore)

	env, err = decodeEnvelope([]byte(`{"data":{"id":9}}`))
	require.NoError(t, err)
	require.Len(t, env.Data, 1, "object data decodes to a one-element slice")

	env, err = decodeEnvelope([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, env.Data)
}

func TestGet_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Options{
		BaseURL:    server.URL,
		APIToken:   "t",
		Timeout:    time.Second,
		MaxRetries: 3,
		RetryBase:  time.Minute, // backoff long enough that cancellation wins
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "football/fixtures", url.Values{}, nil)
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Get did not return after context cancellation")
	}
}
