package search

import (
	"buyerradar/server/internal/geometry"
	"buyerradar/server/internal/models"
)

// Reference is the read-only view of reference data the engine queries.
type Reference interface {
	Buyer(id string) (models.Buyer, bool)
	Property(id string) (models.Property, bool)
	Events() []models.PurchaseEvent
}

// Criteria are the predicates an event must satisfy to be kept.
type Criteria struct {
	Center      models.GeoPoint
	RadiusMiles float64
	Since       models.Date
	Category    models.Category
}

// FilterEvents returns the purchase events matching every criterion, in
// reference order. Each event's buyer and property are resolved before any
// predicate runs, so a dangling reference fails the call regardless of whether
// the event would have matched.
func FilterEvents(ref Reference, c Criteria) ([]models.PurchaseEvent, error) {
	var matched []models.PurchaseEvent

	for _, event := range ref.Events() {
		buyer, ok := ref.Buyer(event.BuyerID)
		if !ok {
			return nil, dataIntegrity("event %q references unknown buyer %q", event.ID, event.BuyerID)
		}
		property, ok := ref.Property(event.PropertyID)
		if !ok {
			return nil, dataIntegrity("event %q references unknown property %q", event.ID, event.PropertyID)
		}

		if event.EventType != models.EventPurchase {
			continue
		}
		if event.EventDate.Before(c.Since.Time) {
			continue
		}
		if c.Category != models.CategoryAll && buyer.Category != c.Category {
			continue
		}
		if geometry.Distance(c.Center, property.Location) > c.RadiusMiles {
			continue
		}

		matched = append(matched, event)
	}

	return matched, nil
}
