package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"catalog-backend/internal/components/assert"
	"catalog-backend/internal/components/chrono"
	"catalog-backend/internal/components/telemetry"
	"catalog-backend/internal/config"
	"catalog-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_fetch_request      = "fetch.request"
	report_fetch_status       = "fetch.status"
	report_fetch_rate_limited = "fetch.rate-limited"
	report_fetch_cache        = "fetch.cache"
)

var (
	// ErrRateLimited is returned when every attempt of a fetch got a 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrStatus is returned for any non-2xx response other than 429.
	ErrStatus = errors.New("unexpected status")
)

// Fetcher returns the raw html of a page.
type Fetcher interface {
	Fetch(ctx context.Context, link string) (string, error)
}

// PageCache stores raw html by url.
type PageCache interface {
	Get(ctx context.Context, link string) (string, bool)
	Set(ctx context.Context, link, contents string)
}

// RetryPolicy decides how many times a rate limited request is attempted
// and how long to wait when the server doesn't say.
type RetryPolicy struct {
	MaxAttempts    int
	DefaultBackoff time.Duration
}

// Delay is the interval the pacing delay before every request is drawn from.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

func (d Delay) next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int64N(int64(d.Max-d.Min)+1))
}

// NewClient creates the http client shared by every fetch of a run.
func NewClient(cfg config.Config, tel telemetry.API) (*resty.Client, error) {
	assert.NotNil(tel)

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if !cfg.Http.DisableCloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeader("user-agent", cfg.Http.UserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(cfg.RootURL().Hostname()))
	client.SetTimeout(cfg.Timeout())

	if cfg.Http.MaxRequestsPerSecond > 0 {
		// burst >= 1 just means that no requests will be dropped
		limiter := rate.NewLimiter(rate.Limit(cfg.Http.MaxRequestsPerSecond), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, tel)
	if cfg.Http.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.Http.DumpDir, tel)
		if err != nil {
			return nil, err
		}
		restyutil.DumpResponses(client, output)
	}
	return client, nil
}

// HttpFetcher fetches pages with a randomized pacing delay and retries
// on 429 responses.
type HttpFetcher struct {
	client *resty.Client
	retry  RetryPolicy
	delay  Delay
	sleep  chrono.SleepAPI
	cache  PageCache
	tel    telemetry.API
}

type FetcherOptions struct {
	Retry RetryPolicy
	Delay Delay
	// Sleep defaults to chrono.StandardSleep.
	Sleep chrono.SleepAPI
	// Cache is optional.
	Cache PageCache
}

func NewHttpFetcher(client *resty.Client, opts FetcherOptions, tel telemetry.API) HttpFetcher {
	assert.NotNil(client)
	assert.NotNil(tel)
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.Sleep == nil {
		opts.Sleep = chrono.StandardSleep{}
	}

	return HttpFetcher{
		client: client,
		retry:  opts.Retry,
		delay:  opts.Delay,
		sleep:  opts.Sleep,
		cache:  opts.Cache,
		tel:    tel,
	}
}

// FetcherFromConfig wires NewClient and NewHttpFetcher together.
func FetcherFromConfig(cfg config.Config, cache PageCache, tel telemetry.API) (HttpFetcher, error) {
	client, err := NewClient(cfg, tel)
	if err != nil {
		return HttpFetcher{}, err
	}
	return NewHttpFetcher(client, FetcherOptions{
		Retry: RetryPolicy{
			MaxAttempts:    cfg.Http.MaxAttempts,
			DefaultBackoff: cfg.DefaultBackoff(),
		},
		Delay: Delay{Min: cfg.MinDelay(), Max: cfg.MaxDelay()},
		Cache: cache,
	}, tel), nil
}

func (f HttpFetcher) Fetch(ctx context.Context, link string) (string, error) {
	if f.cache != nil {
		contents, hit := f.cache.Get(ctx, link)
		if hit {
			f.tel.ReportDebug(report_fetch_cache, "hit", link)
			return contents, nil
		}
	}

	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		err := f.sleep.Sleep(ctx, f.delay.next())
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", link, err)
		}

		res, err := f.client.R().
			SetContext(ctx).
			Get(link)
		if err != nil {
			f.tel.ReportWarning(report_fetch_request, err, link)
			return "", fmt.Errorf("fetch %s: %w", link, err)
		}

		if res.StatusCode() == http.StatusTooManyRequests {
			backoff := retryAfter(res.Header().Get("Retry-After"), time.Now(), f.retry.DefaultBackoff)
			f.tel.ReportWarning(report_fetch_rate_limited, link, attempt, backoff.String())
			if attempt == f.retry.MaxAttempts {
				break
			}
			err = f.sleep.Sleep(ctx, backoff)
			if err != nil {
				return "", fmt.Errorf("fetch %s: %w", link, err)
			}
			continue
		}

		if res.IsError() || res.StatusCode() < 200 || res.StatusCode() >= 300 {
			f.tel.ReportWarning(report_fetch_status, link, res.Status())
			return "", fmt.Errorf("fetch %s: %w: %d", link, ErrStatus, res.StatusCode())
		}

		contents := res.String()
		if f.cache != nil {
			f.cache.Set(ctx, link, contents)
		}
		return contents, nil
	}

	return "", fmt.Errorf("fetch %s: %w after %d attempts", link, ErrRateLimited, f.retry.MaxAttempts)
}

// retryAfter parses a Retry-After header, which is either a number of
// seconds or an http date.
func retryAfter(header string, now time.Time, fallback time.Duration) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(header)
	if err == nil {
		if seconds < 0 {
			return fallback
		}
		return time.Duration(seconds) * time.Second
	}
	date, err := http.ParseTime(header)
	if err == nil {
		wait := date.Sub(now)
		if wait < 0 {
			return 0
		}
		return wait
	}
	return fallback
}

