package database

import (
	"time"

	"buyerradar/server/internal/models"
)

type BuyerRecord struct {
	ID        string           `gorm:"primaryKey"`
	Name      string           `gorm:"not null"`
	Category  string           `gorm:"not null;index"`
	Contacts  []models.Contact `gorm:"type:text;serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BuyerRecord) TableName() string { return "buyers" }

type PropertyRecord struct {
	ID         string `gorm:"primaryKey"`
	Street     string
	City       string `gorm:"index"`
	State      string
	PostalCode string
	// Latitude and Longitude stay NULL until the address is geocoded
	Latitude           *float64 `gorm:"index:idx_properties_coordinates"`
	Longitude          *float64 `gorm:"index:idx_properties_coordinates"`
	GeocodingAttempted bool     `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (PropertyRecord) TableName() string { return "properties" }

func (p PropertyRecord) located() bool {
	return p.Latitude != nil && p.Longitude != nil
}

func (p PropertyRecord) address() string {
	return models.Property{Street: p.Street, City: p.City, State: p.State, PostalCode: p.PostalCode}.Address()
}

type EventRecord struct {
	ID         string          `gorm:"primaryKey"`
	BuyerID    string          `gorm:"not null;index"`
	Buyer      *BuyerRecord    `gorm:"foreignKey:BuyerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	PropertyID string          `gorm:"not null;index"`
	Property   *PropertyRecord `gorm:"foreignKey:PropertyID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	EventType  string          `gorm:"not null"`
	// EventDate is stored as YYYY-MM-DD so it sorts and compares as text
	EventDate string  `gorm:"not null;index"`
	Price     float64 `gorm:"not null"`
	Source    string  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EventRecord) TableName() string { return "purchase_events" }

func buyerRecord(b models.Buyer) BuyerRecord {
	return BuyerRecord{
		ID:       b.ID,
		Name:     b.Name,
		Category: string(b.Category),
		Contacts: b.Contacts,
	}
}

func (r BuyerRecord) model() models.Buyer {
	contacts := r.Contacts
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return models.Buyer{
		ID:       r.ID,
		Name:     r.Name,
		Category: models.Category(r.Category),
		Contacts: contacts,
	}
}

func propertyRecord(p ImportProperty) PropertyRecord {
	rec := PropertyRecord{
		ID:         p.ID,
		Street:     p.Street,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
	}
	if p.Location != nil {
		lat, lng := p.Location.Latitude, p.Location.Longitude
		rec.Latitude = &lat
		rec.Longitude = &lng
		rec.GeocodingAttempted = true
	}
	return rec
}

func (r PropertyRecord) model() models.Property {
	return models.Property{
		ID:         r.ID,
		Street:     r.Street,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Location:   models.GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude},
	}
}

func eventRecord(e models.PurchaseEvent) EventRecord {
	return EventRecord{
		ID:         e.ID,
		BuyerID:    e.BuyerID,
		PropertyID: e.PropertyID,
		EventType:  string(e.EventType),
		EventDate:  e.EventDate.String(),
		Price:      e.Price,
		Source:     string(e.Source),
	}
}

func (r EventRecord) model() (models.PurchaseEvent, error) {
	date, err := models.ParseDate(r.EventDate)
	if err != nil {
		return models.PurchaseEvent{}, err
	}
	return models.PurchaseEvent{
		ID:         r.ID,
		BuyerID:    r.BuyerID,
		PropertyID: r.PropertyID,
		EventType:  models.EventType(r.EventType),
		EventDate:  date,
		Price:      r.Price,
		Source:     models.EventSource(r.Source),
	}, nil
}
