package geometry

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"buyerradar/server/internal/models"
)

// ConvexHull returns the closed counter-clockwise hull of points in lon/lat
// space, or nil when fewer than three non-collinear points are given. The
// input slice is not modified.
func ConvexHull(points []models.GeoPoint) orb.Ring {
	pts := make([]orb.Point, 0, len(points))
	seen := make(map[orb.Point]struct{}, len(points))
	for _, p := range points {
		op := p.Point()
		if _, ok := seen[op]; ok {
			continue
		}
		seen[op] = struct{}{}
		pts = append(pts, op)
	}
	if len(pts) < 3 {
		return nil
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	// Andrew's monotone chain
	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// hull now ends with its first point; a ring needs at least 3 distinct
	// vertices.
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// FootprintFeature describes where a buyer has been active: the hull of the
// deal locations when there is one, otherwise the locations themselves.
func FootprintFeature(buyerID string, points []models.GeoPoint) *geojson.Feature {
	var feature *geojson.Feature
	if hull := ConvexHull(points); hull != nil {
		feature = geojson.NewFeature(orb.Polygon{hull})
	} else {
		mp := make(orb.MultiPoint, len(points))
		for i, p := range points {
			mp[i] = p.Point()
		}
		feature = geojson.NewFeature(mp)
	}

	feature.Properties["buyer_id"] = buyerID
	feature.Properties["deal_count"] = len(points)
	feature.Properties["geometry_type"] = "buyer_footprint"
	return feature
}
