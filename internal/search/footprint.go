package search

import (
	"context"
	"fmt"

	"buyerradar/server/internal/models"
)

// Footprint returns the locations of buyerID's deals that match p, newest
// first. The category in p is ignored.
func Footprint(ref Reference, p Params, buyerID string) ([]models.GeoPoint, error) {
	p.Category = models.CategoryAll
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, ok := ref.Buyer(buyerID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuyer, buyerID)
	}

	events, err := FilterEvents(ref, Criteria{
		Center:      p.Center,
		RadiusMiles: p.RadiusMiles,
		Since:       SinceDate(p.Now, p.Months),
		Category:    models.CategoryAll,
	})
	if err != nil {
		return nil, err
	}

	var deals []models.PurchaseEvent
	for _, e := range events {
		if e.BuyerID == buyerID {
			deals = append(deals, e)
		}
	}
	sortNewestFirst(deals)

	points := make([]models.GeoPoint, 0, len(deals))
	for _, e := range deals {
		property, _ := ref.Property(e.PropertyID)
		points = append(points, property.Location)
	}
	return points, nil
}

// Footprint runs Footprint against the current snapshot.
func (s *Service) Footprint(ctx context.Context, p Params, buyerID string) ([]models.GeoPoint, error) {
	snap := s.store.Current()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return Footprint(snap, p, buyerID)
}
