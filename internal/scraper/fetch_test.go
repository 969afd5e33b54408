package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"catalog-backend/internal/components/telemetry"
	"catalog-backend/internal/config"

	"github.com/stretchr/testify/require"
)

type recordingSleep struct {
	mutex sync.Mutex
	slept []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if d > 0 {
		r.slept = append(r.slept, d)
	}
	return ctx.Err()
}

type memoryCache struct {
	mutex sync.Mutex
	pages map[string]string
}

func (c *memoryCache) Get(_ context.Context, link string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	contents, ok := c.pages[link]
	return contents, ok
}

func (c *memoryCache) Set(_ context.Context, link, contents string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pages[link] = contents
}

func newTestFetcher(t testing.TB, serverUrl string, attempts int, cache PageCache) (HttpFetcher, *recordingSleep, *telemetry.Recorder) {
	cfg := config.Default()
	cfg.RootUrl = serverUrl
	cfg.Http.DisableCloudflareBypass = true

	rec := &telemetry.Recorder{}
	client, err := NewClient(cfg, rec)
	require.NoError(t, err)

	sleep := &recordingSleep{}
	fetcher := NewHttpFetcher(client, FetcherOptions{
		Retry: RetryPolicy{MaxAttempts: attempts, DefaultBackoff: 5 * time.Second},
		Delay: Delay{},
		Sleep: sleep,
		Cache: cache,
	}, rec)
	return fetcher, sleep, rec
}

func TestFetchRetriesRateLimit(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&hits, 1)
		if n == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if n == 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	fetcher, sleep, rec := newTestFetcher(t, server.URL, 3, nil)
	contents, err := fetcher.Fetch(context.Background(), server.URL+"/catalogue")
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", contents)
	require.Equal(t, int64(3), hits)
	require.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, sleep.slept)
	require.Len(t, rec.Find("warning", report_fetch_rate_limited), 2)
}

func TestFetchRateLimitExhausted(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fetcher, sleep, _ := newTestFetcher(t, server.URL, 3, nil)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrRateLimited)
	require.Equal(t, int64(3), hits)
	// no backoff after the last attempt
	require.Len(t, sleep.slept, 2)
}

func TestFetchDoesNotRetryOtherErrors(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		var hits int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&hits, 1)
			w.WriteHeader(status)
		}))

		fetcher, sleep, rec := newTestFetcher(t, server.URL, 3, nil)
		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.ErrorIs(t, err, ErrStatus)
		require.NotErrorIs(t, err, ErrRateLimited)
		require.Equal(t, int64(1), hits)
		require.Empty(t, sleep.slept)
		require.Len(t, rec.Find("warning", report_fetch_status), 1)

		server.Close()
	}
}

func TestFetchTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	link := server.URL
	server.Close()

	fetcher, _, rec := newTestFetcher(t, link, 3, nil)
	_, err := fetcher.Fetch(context.Background(), link)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrStatus)
	require.NotErrorIs(t, err, ErrRateLimited)
	require.Len(t, rec.Find("warning", report_fetch_request), 1)
}

func TestFetchUsesCache(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	cache := &memoryCache{pages: map[string]string{}}
	fetcher, _, _ := newTestFetcher(t, server.URL, 1, cache)

	for i := 0; i < 3; i++ {
		contents, err := fetcher.Fetch(context.Background(), server.URL+"/page")
		require.NoError(t, err)
		require.Equal(t, "fresh", contents)
	}
	require.Equal(t, int64(1), hits)
}

func TestFetchCancelled(t *testing.T) {
	fetcher, _, _ := newTestFetcher(t, "http://127.0.0.1:1", 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fetcher.Fetch(ctx, "http://127.0.0.1:1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 9, 3, 10, 0, 0, 0, time.UTC)
	fallback := 5 * time.Second

	table := []struct {
		header   string
		expected time.Duration
	}{
		{header: "", expected: fallback},
		{header: "7", expected: 7 * time.Second},
		{header: " 0 ", expected: 0},
		{header: "-3", expected: fallback},
		{header: "soon", expected: fallback},
		{header: now.Add(30 * time.Second).Format(http.TimeFormat), expected: 30 * time.Second},
		{header: now.Add(-time.Hour).Format(http.TimeFormat), expected: 0},
	}

	for _, row := range table {
		require.Equal(t, row.expected, retryAfter(row.header, now, fallback), row.header)
	}
}

func TestDelayWithinBounds(t *testing.T) {
	d := Delay{Min: time.Second, Max: 3 * time.Second}
	for i := 0; i < 200; i++ {
		next := d.next()
		require.GreaterOrEqual(t, next, time.Second)
		require.LessOrEqual(t, next, 3*time.Second)
	}
	require.Equal(t, time.Second, Delay{Min: time.Second, Max: time.Second}.next())
	require.Equal(t, time.Duration(0), Delay{}.next())
}
