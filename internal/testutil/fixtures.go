// Package testutil holds the San Antonio reference fixture shared by package tests.
package testutil

import (
	"time"

	"buyerradar/server/internal/models"
)

// SanAntonio is the downtown San Antonio search center.
var SanAntonio = models.GeoPoint{Latitude: 29.4241, Longitude: -98.4936}

// ReferenceNow is the query clock used with the fixture: a 12 month lookback
// starts on 2025-01-15 and excludes every 2024 event.
var ReferenceNow = time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)

func Buyers() []models.Buyer {
	return []models.Buyer{
		{
			ID:       "b1",
			Name:     "Alamo City Home Buyers LLC",
			Category: models.CategoryFlipper,
			Contacts: []models.Contact{
				{Phone: "210-555-0101", Email: "deals@alamocityhomes.example"},
				{Phone: "210-555-0102"},
			},
		},
		{
			ID:       "b2",
			Name:     "Mission Trail Rentals LP",
			Category: models.CategoryLandlord,
			Contacts: []models.Contact{{Phone: "210-555-0142"}},
		},
		{
			ID:       "b3",
			Name:     "Riverwalk Cash Offers",
			Category: models.CategoryCash,
			Contacts: []models.Contact{{Email: "offers@riverwalkcash.example"}},
		},
		{
			ID:       "b4",
			Name:     "Pearl District Holdings",
			Category: models.CategoryUnknown,
			Contacts: []models.Contact{},
		},
	}
}

// Properties are listed with their approximate distance from SanAntonio.
func Properties() []models.Property {
	return []models.Property{
		// ~0.25 mi
		{ID: "p1", Street: "210 E Houston St", City: "San Antonio", State: "TX", PostalCode: "78205", Location: models.GeoPoint{Latitude: 29.4270, Longitude: -98.4910}},
		// ~0.45 mi
		{ID: "p2", Street: "515 S Alamo St", City: "San Antonio", State: "TX", PostalCode: "78205", Location: models.GeoPoint{Latitude: 29.4190, Longitude: -98.4890}},
		// ~0.49 mi
		{ID: "p3", Street: "322 W Martin St", City: "San Antonio", State: "TX", PostalCode: "78207", Location: models.GeoPoint{Latitude: 29.4300, Longitude: -98.4980}},
		// ~1.1 mi
		{ID: "p4", Street: "1410 N Alamo St", City: "San Antonio", State: "TX", PostalCode: "78215", Location: models.GeoPoint{Latitude: 29.4350, Longitude: -98.4800}},
		// ~2.8 mi
		{ID: "p5", Street: "2830 N St Marys St", City: "San Antonio", State: "TX", PostalCode: "78212", Location: models.GeoPoint{Latitude: 29.4650, Longitude: -98.4936}},
		// ~4.4 mi
		{ID: "p6", Street: "4605 S Flores St", City: "San Antonio", State: "TX", PostalCode: "78214", Location: models.GeoPoint{Latitude: 29.3600, Longitude: -98.4936}},
		// ~0.16 mi
		{ID: "p7", Street: "115 Soledad St", City: "San Antonio", State: "TX", PostalCode: "78205", Location: models.GeoPoint{Latitude: 29.4260, Longitude: -98.4950}},
	}
}

func Events() []models.PurchaseEvent {
	return []models.PurchaseEvent{
		{ID: "e1", BuyerID: "b1", PropertyID: "p1", EventType: models.EventPurchase, EventDate: models.NewDate(2025, time.July, 21), Price: 275000, Source: models.SourceCounty},
		{ID: "e2", BuyerID: "b1", PropertyID: "p2", EventType: models.EventPurchase, EventDate: models.NewDate(2025, time.May, 10), Price: 245000, Source: models.SourceMLS},
		{ID: "e3", BuyerID: "b1", PropertyID: "p3", EventType: models.EventPurchase, EventDate: models.NewDate(2024, time.December, 19), Price: 199000, Source: models.SourceCounty},
		{ID: "e4", BuyerID: "b3", PropertyID: "p1", EventType: models.EventPurchase, EventDate: models.NewDate(2024, time.September, 20), Price: 180000, Source: models.SourceCounty},
		{ID: "e5", BuyerID: "b2", PropertyID: "p4", EventType: models.EventPurchase, EventDate: models.NewDate(2025, time.November, 2), Price: 310000, Source: models.SourceMLS},
		{ID: "e6", BuyerID: "b2", PropertyID: "p5", EventType: models.EventPurchase, EventDate: models.NewDate(2025, time.August, 14), Price: 265000, Source: models.SourceCounty},
		{ID: "e7", BuyerID: "b2", PropertyID: "p6", EventType: models.EventPurchase, EventDate: models.NewDate(2025, time.March, 3), Price: 225000, Source: models.SourceManual},
		{ID: "e8", BuyerID: "b4", PropertyID: "p7", EventType: models.EventPurchase, EventDate: models.NewDate(2025, time.July, 21), Price: 150000, Source: models.SourceManual},
		{ID: "e9", BuyerID: "b1", PropertyID: "p4", EventType: models.EventSale, EventDate: models.NewDate(2025, time.October, 1), Price: 330000, Source: models.SourceMLS},
	}
}
