package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date stored as midnight UTC.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type EventType string

const (
	EventPurchase EventType = "purchase"
	EventSale     EventType = "sale"
)

type EventSource string

const (
	SourceCounty EventSource = "county"
	SourceMLS    EventSource = "mls"
	SourceManual EventSource = "manual"
)

type PurchaseEvent struct {
	ID         string      `json:"id"`
	BuyerID    string      `json:"buyer_id"`
	PropertyID string      `json:"property_id"`
	EventType  EventType   `json:"event_type"`
	EventDate  Date        `json:"event_date"`
	Price      float64     `json:"price"`
	Source     EventSource `json:"source"`
}
