package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"buyerradar/server/internal/models"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "BuyerRadar Activity Search/1.0"
	cacheFileName    = "geocode_cache.json"
)

var ErrNoResults = errors.New("no results found")

type Options struct {
	// CacheDir holds the on-disk cache; empty keeps the cache in memory only
	CacheDir string
	// Country restricts results to an ISO 3166-1 alpha-2 code
	Country string
	BaseURL string
	// MinInterval spaces requests to respect Nominatim's usage policy
	MinInterval time.Duration
}

// Geocoder resolves free-text addresses with Nominatim, caching every hit.
type Geocoder struct {
	logger    *logrus.Logger
	opts      Options
	cache     map[string]models.GeoPoint
	cacheLock sync.RWMutex
	saveLock  sync.Mutex
	client    *http.Client

	// one request in flight at a time so MinInterval holds across goroutines;
	// a channel rather than a mutex so waiting callers can give up on ctx
	slot        chan struct{}
	lastRequest time.Time
}

func NewGeocoder(opts Options, logger *logrus.Logger) *Geocoder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
			logger.WithError(err).Warn("Could not create geocode cache directory")
		}
	}

	g := &Geocoder{
		logger: logger,
		opts:   opts,
		cache:  make(map[string]models.GeoPoint),
		client: &http.Client{Timeout: 10 * time.Second},
		slot:   make(chan struct{}, 1),
	}
	g.loadCache()
	return g
}

// cacheKey normalizes query and scopes it to the country restriction, so a
// shared cache file never answers for another country.
func (g *Geocoder) cacheKey(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if normalized == "" {
		return ""
	}
	return strings.ToLower(g.opts.Country) + "|" + normalized
}

func (g *Geocoder) cacheFile() string {
	return filepath.Join(g.opts.CacheDir, cacheFileName)
}

func (g *Geocoder) loadCache() {
	if g.opts.CacheDir == "" {
		return
	}

	data, err := os.ReadFile(g.cacheFile())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			g.logger.Warnf("Could not load geocode cache: %v", err)
		}
		return
	}

	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}
	g.logger.Infof("Loaded %d cached addresses", len(g.cache))
}

func (g *Geocoder) saveCache() {
	if g.opts.CacheDir == "" {
		return
	}

	g.saveLock.Lock()
	defer g.saveLock.Unlock()

	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	if err := os.WriteFile(g.cacheFile(), data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
		return
	}
	g.logger.Debug("Saved geocode cache to disk")
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves query to a location. Waiting for the request slot and the
// upstream call both stop when ctx is done.
func (g *Geocoder) Geocode(ctx context.Context, query string) (models.GeoPoint, error) {
	key := g.cacheKey(query)
	if key == "" {
		return models.GeoPoint{}, fmt.Errorf("empty address")
	}

	g.cacheLock.RLock()
	point, ok := g.cache[key]
	g.cacheLock.RUnlock()
	if ok {
		g.logger.WithFields(logrus.Fields{
			"address":   query,
			"latitude":  point.Latitude,
			"longitude": point.Longitude,
			"source":    "cache",
		}).Debug("Found coordinates in cache")
		return point, nil
	}

	point, err := g.lookup(ctx, query)
	if err != nil {
		return models.GeoPoint{}, err
	}

	g.cacheLock.Lock()
	g.cache[key] = point
	g.cacheLock.Unlock()
	g.saveCache()

	return point, nil
}

func (g *Geocoder) lookup(ctx context.Context, query string) (models.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return models.GeoPoint{}, err
	}
	select {
	case <-ctx.Done():
		return models.GeoPoint{}, ctx.Err()
	case g.slot <- struct{}{}:
	}
	defer func() { <-g.slot }()

	if wait := g.opts.MinInterval - time.Since(g.lastRequest); wait > 0 {
		select {
		case <-ctx.Done():
			return models.GeoPoint{}, ctx.Err()
		case <-time.After(wait):
		}
	}
	defer func() { g.lastRequest = time.Now() }()

	g.logger.WithField("address", query).Info("Geocoding address with Nominatim")

	params := url.Values{
		"q":      []string{query},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}
	if g.opts.Country != "" {
		params.Set("countrycodes", g.opts.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.BaseURL+"/search", nil)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("address", query).Error("Geocoding request failed")
		return models.GeoPoint{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.GeoPoint{}, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		g.logger.WithError(err).WithField("address", query).Error("Failed to parse response")
		return models.GeoPoint{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		g.logger.WithField("address", query).Warn("No results found")
		return models.GeoPoint{}, fmt.Errorf("%w for address: %s", ErrNoResults, query)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}

	point := models.GeoPoint{Latitude: lat, Longitude: lon}
	g.logger.WithFields(logrus.Fields{
		"address":   query,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")

	return point, nil
}
