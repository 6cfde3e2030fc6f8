package search

import (
	"github.com/paulmach/orb"

	"buyerradar/server/internal/geometry"
	"buyerradar/server/internal/models"
)

// Results pairs the ranked buyers with the boundary of the searched area.
type Results struct {
	Summaries   []models.BuyerSummary `json:"summaries"`
	Boundary    orb.Ring              `json:"boundary"`
	Center      models.GeoPoint       `json:"center"`
	RadiusMiles float64               `json:"radius_miles"`
	Months      int                   `json:"months"`
	Category    models.Category       `json:"category"`
	Since       models.Date           `json:"since"`
}

// Run executes p against ref. It is a pure function of its inputs.
func Run(ref Reference, p Params) (*Results, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	since := SinceDate(p.Now, p.Months)
	events, err := FilterEvents(ref, Criteria{
		Center:      p.Center,
		RadiusMiles: p.RadiusMiles,
		Since:       since,
		Category:    p.Category,
	})
	if err != nil {
		return nil, err
	}

	summaries, err := Aggregate(events, ref)
	if err != nil {
		return nil, err
	}

	ring, err := geometry.Boundary(p.Center, p.RadiusMiles, p.segments())
	if err != nil {
		return nil, invalidArgument("%v", err)
	}

	return &Results{
		Summaries:   summaries,
		Boundary:    ring,
		Center:      p.Center,
		RadiusMiles: p.RadiusMiles,
		Months:      p.Months,
		Category:    p.Category,
		Since:       since,
	}, nil
}
