package geocoding

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buyerradar/server/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func nominatimServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "us", r.URL.Query().Get("countrycodes"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		switch r.URL.Query().Get("q") {
		case "100 Alamo Plaza, San Antonio, TX 78205":
			w.Write([]byte(`[{"lat": "29.4259", "lon": "-98.4861"}]`))
		case "broken":
			w.Write([]byte(`{`))
		case "throttled":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGeocoder_Geocode(t *testing.T) {
	var hits int32
	server := nominatimServer(t, &hits)
	cacheDir := t.TempDir()

	g := NewGeocoder(Options{CacheDir: cacheDir, Country: "us", BaseURL: server.URL}, testLogger())

	point, err := g.Geocode(context.Background(), "100 Alamo Plaza, San Antonio, TX 78205")
	require.NoError(t, err)
	assert.Equal(t, models.GeoPoint{Latitude: 29.4259, Longitude: -98.4861}, point)

	// Case and spacing differences hit the cache.
	point, err = g.Geocode(context.Background(), "100 alamo plaza,  San Antonio, TX 78205")
	require.NoError(t, err)
	assert.Equal(t, 29.4259, point.Latitude)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = os.Stat(filepath.Join(cacheDir, cacheFileName))
	assert.NoError(t, err)
}

func TestGeocoder_PersistentCache(t *testing.T) {
	var hits int32
	server := nominatimServer(t, &hits)
	cacheDir := t.TempDir()

	first := NewGeocoder(Options{CacheDir: cacheDir, Country: "us", BaseURL: server.URL}, testLogger())
	_, err := first.Geocode(context.Background(), "100 Alamo Plaza, San Antonio, TX 78205")
	require.NoError(t, err)

	second := NewGeocoder(Options{CacheDir: cacheDir, Country: "us", BaseURL: server.URL}, testLogger())
	point, err := second.Geocode(context.Background(), "100 Alamo Plaza, San Antonio, TX 78205")
	require.NoError(t, err)
	assert.Equal(t, -98.4861, point.Longitude)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGeocoder_Errors(t *testing.T) {
	var hits int32
	server := nominatimServer(t, &hits)
	g := NewGeocoder(Options{Country: "us", BaseURL: server.URL}, testLogger())

	_, err := g.Geocode(context.Background(), "Nowhere Rd")
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = g.Geocode(context.Background(), "broken")
	assert.ErrorContains(t, err, "failed to parse response")

	_, err = g.Geocode(context.Background(), "throttled")
	assert.ErrorContains(t, err, "status 429")

	_, err = g.Geocode(context.Background(), "   ")
	assert.ErrorContains(t, err, "empty address")

	// Failures are not cached.
	_, err = g.Geocode(context.Background(), "Nowhere Rd")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestGeocoder_CancelledContext(t *testing.T) {
	var hits int32
	server := nominatimServer(t, &hits)
	g := NewGeocoder(Options{Country: "us", BaseURL: server.URL}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Geocode(ctx, "100 Alamo Plaza, San Antonio, TX 78205")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeocoder_WaitingCallerHonorsDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	g := NewGeocoder(Options{BaseURL: server.URL}, testLogger())

	// The first lookup occupies the request slot until its own deadline.
	slowCtx, cancelSlow := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelSlow()
	firstDone := make(chan error, 1)
	go func() {
		_, err := g.Geocode(slowCtx, "1 Slow St")
		firstDone <- err
	}()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := g.Geocode(ctx, "2 Queued St")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	cancelSlow()
	assert.ErrorIs(t, <-firstDone, context.Canceled)
}

func TestGeocoder_UpstreamCallHonorsDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	g := NewGeocoder(Options{BaseURL: server.URL}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := g.Geocode(ctx, "100 Alamo Plaza, San Antonio, TX 78205")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGeocoder_CacheIsScopedByCountry(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Query().Get("countrycodes") == "mx" {
			w.Write([]byte(`[{"lat": "19.4326", "lon": "-99.1332"}]`))
			return
		}
		w.Write([]byte(`[{"lat": "29.4241", "lon": "-98.4936"}]`))
	}))
	t.Cleanup(server.Close)
	cacheDir := t.TempDir()

	us := NewGeocoder(Options{CacheDir: cacheDir, Country: "us", BaseURL: server.URL}, testLogger())
	point, err := us.Geocode(context.Background(), "Plaza Principal")
	require.NoError(t, err)
	assert.Equal(t, 29.4241, point.Latitude)

	mx := NewGeocoder(Options{CacheDir: cacheDir, Country: "mx", BaseURL: server.URL}, testLogger())
	point, err = mx.Geocode(context.Background(), "Plaza Principal")
	require.NoError(t, err)
	assert.Equal(t, 19.4326, point.Latitude)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
