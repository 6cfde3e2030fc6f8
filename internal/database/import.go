package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buyerradar/server/internal/dataset"
	"buyerradar/server/internal/models"
	"buyerradar/server/internal/search"
)

const batchSize = 100

// ImportProperty is a property as delivered by a county or MLS export, where
// the location may still be unknown.
type ImportProperty struct {
	ID         string           `json:"id"`
	Street     string           `json:"street"`
	City       string           `json:"city"`
	State      string           `json:"state"`
	PostalCode string           `json:"postal_code"`
	Location   *models.GeoPoint `json:"location,omitempty"`
}

// ImportDocument has the layout of the JSON reference dataset.
type ImportDocument struct {
	Buyers     []models.Buyer         `json:"buyers"`
	Properties []ImportProperty       `json:"properties"`
	Events     []models.PurchaseEvent `json:"events"`
}

type ImportStats struct {
	Buyers     int `json:"buyers"`
	Properties int `json:"properties"`
	Unlocated  int `json:"unlocated"`
	Events     int `json:"events"`
}

func ReadImportFile(path string) (*ImportDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var doc ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse import file %s: %w", path, err)
	}
	return &doc, nil
}

// DocumentFromCollections wraps fully located reference data for import.
func DocumentFromCollections(c *dataset.Collections) *ImportDocument {
	doc := &ImportDocument{Buyers: c.Buyers, Events: c.Events}
	for _, p := range c.Properties {
		loc := p.Location
		doc.Properties = append(doc.Properties, ImportProperty{
			ID:         p.ID,
			Street:     p.Street,
			City:       p.City,
			State:      p.State,
			PostalCode: p.PostalCode,
			Location:   &loc,
		})
	}
	return doc
}

// Validate applies the snapshot record checks to doc. Missing locations are
// allowed; they are filled in by UpdateMissingCoordinates.
func (doc *ImportDocument) Validate() error {
	if _, err := dataset.NewSnapshot(&dataset.Collections{Buyers: doc.Buyers, Events: doc.Events}); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(doc.Properties))
	for _, p := range doc.Properties {
		if p.ID == "" {
			return fmt.Errorf("%w: property without id", dataset.ErrInvalidRecord)
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: property %q", dataset.ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Location != nil && !p.Location.Valid() {
			return fmt.Errorf("%w: property %q has out of range location %+v", dataset.ErrInvalidRecord, p.ID, *p.Location)
		}
	}
	return nil
}

// UpsertDocument writes doc in a single transaction. Existing rows are
// updated in place; a known property location is never overwritten by an
// import that lacks one. Events pointing at unknown buyers or properties abort
// the whole import with search.ErrDataIntegrity.
func UpsertDocument(ctx context.Context, db *gorm.DB, doc *ImportDocument) (ImportStats, error) {
	var stats ImportStats
	if err := doc.Validate(); err != nil {
		return stats, err
	}

	buyers := make([]BuyerRecord, len(doc.Buyers))
	for i, b := range doc.Buyers {
		buyers[i] = buyerRecord(b)
	}
	properties := make([]PropertyRecord, len(doc.Properties))
	for i, p := range doc.Properties {
		properties[i] = propertyRecord(p)
		if !properties[i].located() {
			stats.Unlocated++
		}
	}
	events := make([]EventRecord, len(doc.Events))
	for i, e := range doc.Events {
		events[i] = eventRecord(e)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(buyers) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(buyers, batchSize).Error; err != nil {
				return fmt.Errorf("failed to upsert buyers: %w", err)
			}
		}

		if len(properties) > 0 {
			updates := clause.AssignmentColumns([]string{"street", "city", "state", "postal_code", "updated_at"})
			updates = append(updates, clause.Assignments(map[string]interface{}{
				"latitude":            gorm.Expr("COALESCE(excluded.latitude, properties.latitude)"),
				"longitude":           gorm.Expr("COALESCE(excluded.longitude, properties.longitude)"),
				"geocoding_attempted": gorm.Expr("excluded.geocoding_attempted OR properties.geocoding_attempted"),
			})...)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: updates,
			}).CreateInBatches(properties, batchSize).Error; err != nil {
				return fmt.Errorf("failed to upsert properties: %w", err)
			}
		}

		if len(events) > 0 {
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(events, batchSize).Error; err != nil {
				return fmt.Errorf("failed to upsert events: %w", mapConstraintError(err))
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}

	stats.Buyers = len(buyers)
	stats.Properties = len(properties)
	stats.Events = len(events)
	return stats, nil
}

// mapConstraintError turns SQLite foreign key violations into
// search.ErrDataIntegrity.
func mapConstraintError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return fmt.Errorf("%w: %v", search.ErrDataIntegrity, err)
	}
	return err
}
