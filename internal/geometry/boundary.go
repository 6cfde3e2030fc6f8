package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"buyerradar/server/internal/models"
)

// DefaultSegments is the number of arcs used to approximate a search circle.
const DefaultSegments = 64

var (
	ErrInvalidRadius   = errors.New("radius must be greater than zero")
	ErrInvalidSegments = errors.New("segments must be at least 3")
)

// Destination returns the point reached by travelling distanceMiles from
// origin along the initial bearing (radians, clockwise from north) on a sphere.
func Destination(origin models.GeoPoint, bearing, distanceMiles float64) models.GeoPoint {
	lat1 := toRadians(origin.Latitude)
	lon1 := toRadians(origin.Longitude)
	delta := distanceMiles / EarthRadiusMiles

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(bearing)
	lat2 := math.Asin(math.Min(1, math.Max(-1, sinLat2)))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearing)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*sinLat2,
	)

	return models.GeoPoint{
		Latitude:  toDegrees(lat2),
		Longitude: normalizeLongitude(toDegrees(lon2)),
	}
}

// normalizeLongitude wraps lon into [-180, 180].
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}

// Boundary approximates the circle of radiusMiles around center with a closed
// ring of segments+1 points. The first and last points are identical.
func Boundary(center models.GeoPoint, radiusMiles float64, segments int) (orb.Ring, error) {
	if !(radiusMiles > 0) || math.IsInf(radiusMiles, 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRadius, radiusMiles)
	}
	if segments < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSegments, segments)
	}

	ring := make(orb.Ring, segments+1)
	step := 2 * math.Pi / float64(segments)
	for i := 0; i < segments; i++ {
		ring[i] = Destination(center, float64(i)*step, radiusMiles).Point()
	}
	// Bearing 2π lands on bearing 0 up to rounding; reuse the first point so the
	// ring is closed exactly.
	ring[segments] = ring[0]

	return ring, nil
}

// BoundaryFeature wraps a boundary ring as a GeoJSON polygon feature for map overlays.
func BoundaryFeature(center models.GeoPoint, radiusMiles float64, ring orb.Ring) *geojson.Feature {
	feature := geojson.NewFeature(orb.Polygon{ring})
	feature.Properties = geojson.Properties{
		"center_latitude":  center.Latitude,
		"center_longitude": center.Longitude,
		"radius_miles":     radiusMiles,
		"point_count":      len(ring),
		"geometry_type":    "search_radius",
	}
	return feature
}
