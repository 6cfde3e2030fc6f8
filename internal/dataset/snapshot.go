// Package dataset holds the read-only reference data queried by the search engine.
//
// A Snapshot is built once from a set of Collections and never modified. Reloads
// build a fresh Snapshot and publish it through a Store, so queries that are
// already running keep reading the snapshot they started with.
package dataset

import (
	"errors"
	"fmt"
	"time"

	"buyerradar/server/internal/models"
)

var (
	ErrDuplicateID   = errors.New("duplicate id")
	ErrInvalidRecord = errors.New("invalid record")
)

// Collections is the raw reference data handed over by a Source.
type Collections struct {
	Buyers     []models.Buyer         `json:"buyers"`
	Properties []models.Property      `json:"properties"`
	Events     []models.PurchaseEvent `json:"events"`
}

type Snapshot struct {
	Version  uint64
	Source   string
	LoadedAt time.Time

	buyers     map[string]models.Buyer
	properties map[string]models.Property
	events     []models.PurchaseEvent
}

// NewSnapshot indexes c by id. Records are validated field by field; event
// references are left for the query to resolve.
func NewSnapshot(c *Collections) (*Snapshot, error) {
	if c == nil {
		c = &Collections{}
	}

	s := &Snapshot{
		buyers:     make(map[string]models.Buyer, len(c.Buyers)),
		properties: make(map[string]models.Property, len(c.Properties)),
		events:     make([]models.PurchaseEvent, 0, len(c.Events)),
	}

	for _, b := range c.Buyers {
		if err := validateBuyer(b); err != nil {
			return nil, err
		}
		if _, ok := s.buyers[b.ID]; ok {
			return nil, fmt.Errorf("%w: buyer %q", ErrDuplicateID, b.ID)
		}
		b.Contacts = append([]models.Contact(nil), b.Contacts...)
		s.buyers[b.ID] = b
	}

	for _, p := range c.Properties {
		if err := validateProperty(p); err != nil {
			return nil, err
		}
		if _, ok := s.properties[p.ID]; ok {
			return nil, fmt.Errorf("%w: property %q", ErrDuplicateID, p.ID)
		}
		s.properties[p.ID] = p
	}

	seen := make(map[string]struct{}, len(c.Events))
	for _, e := range c.Events {
		if err := validateEvent(e); err != nil {
			return nil, err
		}
		if _, ok := seen[e.ID]; ok {
			return nil, fmt.Errorf("%w: event %q", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
		s.events = append(s.events, e)
	}

	return s, nil
}

func validateBuyer(b models.Buyer) error {
	if b.ID == "" {
		return fmt.Errorf("%w: buyer without id", ErrInvalidRecord)
	}
	if !b.Category.IsBuyerCategory() {
		return fmt.Errorf("%w: buyer %q has unknown category %q", ErrInvalidRecord, b.ID, b.Category)
	}
	return nil
}

func validateProperty(p models.Property) error {
	if p.ID == "" {
		return fmt.Errorf("%w: property without id", ErrInvalidRecord)
	}
	if !p.Location.Valid() {
		return fmt.Errorf("%w: property %q has out of range location %+v", ErrInvalidRecord, p.ID, p.Location)
	}
	return nil
}

func validateEvent(e models.PurchaseEvent) error {
	if e.ID == "" {
		return fmt.Errorf("%w: event without id", ErrInvalidRecord)
	}
	if e.EventType != models.EventPurchase && e.EventType != models.EventSale {
		return fmt.Errorf("%w: event %q has unknown type %q", ErrInvalidRecord, e.ID, e.EventType)
	}
	if !(e.Price > 0) {
		return fmt.Errorf("%w: event %q has non-positive price %v", ErrInvalidRecord, e.ID, e.Price)
	}
	if e.EventDate.IsZero() {
		return fmt.Errorf("%w: event %q has no date", ErrInvalidRecord, e.ID)
	}
	switch e.Source {
	case models.SourceCounty, models.SourceMLS, models.SourceManual:
	default:
		return fmt.Errorf("%w: event %q has unknown source %q", ErrInvalidRecord, e.ID, e.Source)
	}
	return nil
}

func (s *Snapshot) Buyer(id string) (models.Buyer, bool) {
	b, ok := s.buyers[id]
	return b, ok
}

func (s *Snapshot) Property(id string) (models.Property, bool) {
	p, ok := s.properties[id]
	return p, ok
}

// Events returns the events in load order. Callers must not modify the slice.
func (s *Snapshot) Events() []models.PurchaseEvent {
	return s.events
}

// Counts reports the number of buyers, properties and events.
func (s *Snapshot) Counts() (buyers, properties, events int) {
	return len(s.buyers), len(s.properties), len(s.events)
}

// DanglingReferences counts events whose buyer or property is missing. Such
// events make every query that reaches them fail.
func (s *Snapshot) DanglingReferences() int {
	count := 0
	for _, e := range s.events {
		_, buyerOK := s.buyers[e.BuyerID]
		_, propertyOK := s.properties[e.PropertyID]
		if !buyerOK || !propertyOK {
			count++
		}
	}
	return count
}
