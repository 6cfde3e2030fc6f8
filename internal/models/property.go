package models

import "github.com/paulmach/orb"

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within the latitude/longitude ranges.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Point converts to orb's [lon, lat] ordering.
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

type Property struct {
	ID         string   `json:"id"`
	Street     string   `json:"street"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	PostalCode string   `json:"postal_code"`
	Location   GeoPoint `json:"location"`
}

// Address returns the single-line postal address used for geocoding.
func (p Property) Address() string {
	return p.Street + ", " + p.City + ", " + p.State + " " + p.PostalCode
}
