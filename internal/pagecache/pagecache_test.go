package pagecache

import (
	"context"
	"testing"
	"time"

	"catalog-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeTime struct {
	now time.Time
}

func (f *fakeTime) Now() time.Time {
	return f.now
}

func TestCacheRoundTrip(t *testing.T) {
	clock := &fakeTime{now: time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC)}
	cache, err := OpenInMemory(time.Hour, clock, &telemetry.Recorder{})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	_, hit := cache.Get(ctx, "https://apps.ualberta.ca/catalogue")
	require.False(t, hit)

	cache.Set(ctx, "https://apps.ualberta.ca/catalogue", "<html></html>")

	contents, hit := cache.Get(ctx, "https://apps.ualberta.ca/catalogue")
	require.True(t, hit)
	require.Equal(t, "<html></html>", contents)

	// normalized urls share an entry
	contents, hit = cache.Get(ctx, "HTTPS://apps.ualberta.ca:443/catalogue#top")
	require.True(t, hit)
	require.Equal(t, "<html></html>", contents)
}

func TestCacheExpires(t *testing.T) {
	clock := &fakeTime{now: time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC)}
	cache, err := OpenInMemory(time.Hour, clock, &telemetry.Recorder{})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "https://apps.ualberta.ca/catalogue/faculty/sc", "page")

	clock.now = clock.now.Add(59 * time.Minute)
	_, hit := cache.Get(ctx, "https://apps.ualberta.ca/catalogue/faculty/sc")
	require.True(t, hit)

	clock.now = clock.now.Add(time.Minute)
	_, hit = cache.Get(ctx, "https://apps.ualberta.ca/catalogue/faculty/sc")
	require.False(t, hit)

	// expired entries are gone even if the clock goes back
	clock.now = clock.now.Add(-time.Hour)
	_, hit = cache.Get(ctx, "https://apps.ualberta.ca/catalogue/faculty/sc")
	require.False(t, hit)
}
