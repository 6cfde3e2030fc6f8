package database

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"buyerradar/server/internal/dataset"
	"buyerradar/server/internal/models"
)

// Source serves the reference data kept in SQLite as a dataset.Source.
type Source struct {
	db     *gorm.DB
	name   string
	logger *logrus.Logger
}

func NewSource(db *gorm.DB, name string, logger *logrus.Logger) *Source {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Source{db: db, name: name, logger: logger}
}

func (s *Source) Name() string {
	return "sqlite:" + s.name
}

// Load reads every table. Properties that have not been geocoded yet cannot
// lie inside any search radius, so they are left out together with their
// events.
func (s *Source) Load(ctx context.Context) (*dataset.Collections, error) {
	db := s.db.WithContext(ctx)

	var buyers []BuyerRecord
	if err := db.Order("id").Find(&buyers).Error; err != nil {
		return nil, fmt.Errorf("failed to load buyers: %w", err)
	}
	var properties []PropertyRecord
	if err := db.Order("id").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}
	var events []EventRecord
	if err := db.Order("event_date DESC, id").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	c := &dataset.Collections{
		Buyers:     make([]models.Buyer, 0, len(buyers)),
		Properties: make([]models.Property, 0, len(properties)),
		Events:     make([]models.PurchaseEvent, 0, len(events)),
	}
	for _, b := range buyers {
		c.Buyers = append(c.Buyers, b.model())
	}

	unlocated := make(map[string]struct{})
	for _, p := range properties {
		if !p.located() {
			unlocated[p.ID] = struct{}{}
			continue
		}
		c.Properties = append(c.Properties, p.model())
	}

	skipped := 0
	for _, e := range events {
		if _, ok := unlocated[e.PropertyID]; ok {
			skipped++
			continue
		}
		event, err := e.model()
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", e.ID, err)
		}
		c.Events = append(c.Events, event)
	}

	if len(unlocated) > 0 {
		s.logger.WithFields(logrus.Fields{
			"source":               s.Name(),
			"unlocated_properties": len(unlocated),
			"skipped_events":       skipped,
		}).Warn("Properties without coordinates left out of the snapshot")
	}

	return c, nil
}
