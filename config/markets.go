package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"buyerradar/server/internal/models"
)

// Market is a named search preset offered to the UI.
type Market struct {
	Name          string          `json:"name"`
	DisplayName   string          `json:"display_name"`
	Center        models.GeoPoint `json:"center"`
	DefaultRadius float64         `json:"default_radius_miles"`
	ZoomLevel     int             `json:"zoom_level"`
}

// SupportedMarkets is used until LoadMarkets replaces it.
var SupportedMarkets = []Market{
	{Name: "san-antonio", DisplayName: "San Antonio, TX", Center: models.GeoPoint{Latitude: 29.4241, Longitude: -98.4936}, DefaultRadius: 2, ZoomLevel: 13},
	{Name: "austin", DisplayName: "Austin, TX", Center: models.GeoPoint{Latitude: 30.2672, Longitude: -97.7431}, DefaultRadius: 2, ZoomLevel: 13},
	{Name: "houston", DisplayName: "Houston, TX", Center: models.GeoPoint{Latitude: 29.7604, Longitude: -95.3698}, DefaultRadius: 3, ZoomLevel: 12},
	{Name: "dallas", DisplayName: "Dallas, TX", Center: models.GeoPoint{Latitude: 32.7767, Longitude: -96.7970}, DefaultRadius: 3, ZoomLevel: 12},
	{Name: "phoenix", DisplayName: "Phoenix, AZ", Center: models.GeoPoint{Latitude: 33.4484, Longitude: -112.0740}, DefaultRadius: 3, ZoomLevel: 12},
}

var (
	markets     = SupportedMarkets
	marketsLock sync.RWMutex
)

type marketsFile struct {
	Markets []Market `json:"markets"`
}

// LoadMarkets replaces the market presets with the contents of path.
func LoadMarkets(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read markets file: %w", err)
	}

	var file marketsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse markets file: %w", err)
	}
	if len(file.Markets) == 0 {
		return fmt.Errorf("markets file %s defines no markets", path)
	}

	seen := make(map[string]struct{}, len(file.Markets))
	for i := range file.Markets {
		m := &file.Markets[i]
		m.Name = NormalizeMarket(m.Name)
		if m.Name == "" {
			return fmt.Errorf("market %d has no name", i)
		}
		if _, ok := seen[m.Name]; ok {
			return fmt.Errorf("duplicate market %q", m.Name)
		}
		seen[m.Name] = struct{}{}
		if !m.Center.Valid() {
			return fmt.Errorf("market %q has an out of range center", m.Name)
		}
		if m.DefaultRadius <= 0 {
			m.DefaultRadius = 2
		}
	}

	marketsLock.Lock()
	markets = file.Markets
	marketsLock.Unlock()
	return nil
}

// ResetMarkets restores SupportedMarkets.
func ResetMarkets() {
	marketsLock.Lock()
	markets = SupportedMarkets
	marketsLock.Unlock()
}

func GetMarkets() []Market {
	marketsLock.RLock()
	defer marketsLock.RUnlock()

	out := make([]Market, len(markets))
	copy(out, markets)
	return out
}

func GetMarketNames() []string {
	all := GetMarkets()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name
	}
	return names
}

// GetMarketByName looks a market up by its normalized name.
func GetMarketByName(name string) (Market, bool) {
	key := NormalizeMarket(name)

	marketsLock.RLock()
	defer marketsLock.RUnlock()

	for _, m := range markets {
		if m.Name == key {
			return m, true
		}
	}
	return Market{}, false
}

// NormalizeMarket lower-cases name and joins its words with dashes, so
// "San Antonio" and "san-antonio" name the same market.
func NormalizeMarket(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, ",", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), "-")
}
