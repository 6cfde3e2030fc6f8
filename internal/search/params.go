package search

import (
	"math"
	"time"

	"buyerradar/server/internal/geometry"
	"buyerradar/server/internal/models"
)

// Params describes one buyer activity query.
type Params struct {
	Center      models.GeoPoint
	RadiusMiles float64
	Months      int
	Category    models.Category

	// Now anchors the lookback window. It is passed in rather than read from
	// the clock so identical params always give identical results.
	Now time.Time

	// Segments of the boundary ring; zero means geometry.DefaultSegments.
	Segments int
}

func (p Params) segments() int {
	if p.Segments == 0 {
		return geometry.DefaultSegments
	}
	return p.Segments
}

// Validate checks p without touching any reference data.
func (p Params) Validate() error {
	if !p.Center.Valid() {
		return invalidArgument("center %v,%v is out of range", p.Center.Latitude, p.Center.Longitude)
	}
	if !(p.RadiusMiles > 0) || math.IsInf(p.RadiusMiles, 1) {
		return invalidArgument("radius must be a positive number of miles, got %v", p.RadiusMiles)
	}
	if p.Months < 0 {
		return invalidArgument("months must not be negative, got %d", p.Months)
	}
	if !p.Category.IsFilter() {
		return invalidArgument("unknown category %q", p.Category)
	}
	if p.Segments != 0 && p.Segments < 3 {
		return invalidArgument("segments must be at least 3, got %d", p.Segments)
	}
	if p.Now.IsZero() {
		return invalidArgument("query time is required")
	}
	return nil
}

// SinceDate returns the first calendar day inside a lookback of months from now.
//
// Month arithmetic uses time.AddDate normalization: when the day of month does
// not exist in the target month it rolls forward into the next month, so
// 2026-03-31 minus one month is 2026-03-03.
func SinceDate(now time.Time, months int) models.Date {
	today := models.DateOf(now)
	return models.Date{Time: today.AddDate(0, -months, 0)}
}
