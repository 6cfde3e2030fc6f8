package database

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"buyerradar/server/internal/models"
)

// Geocoder resolves a free-text address to a location.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.GeoPoint, error)
}

type GeocodeStats struct {
	Total     int
	Processed int
	Failed    int
}

// UpdateMissingCoordinates geocodes every property that has no coordinates
// and has not been attempted before. Failures are recorded as attempted so they
// are not retried on the next run. Cancelling ctx rolls back the current batch,
// leaving its properties pending.
func UpdateMissingCoordinates(ctx context.Context, db *gorm.DB, geocoder Geocoder, logger *logrus.Logger) (GeocodeStats, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	var stats GeocodeStats
	pending := db.WithContext(ctx).Model(&PropertyRecord{}).
		Where("(latitude IS NULL OR longitude IS NULL) AND geocoding_attempted = ?", false).
		Where("street <> '' AND city <> ''")

	var total int64
	if err := pending.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return stats, fmt.Errorf("failed to count properties: %w", err)
	}
	stats.Total = int(total)
	if total == 0 {
		logger.Info("No properties need geocoding")
		return stats, nil
	}
	logger.WithField("count", total).Info("Found properties that need geocoding")

	const geocodeBatch = 10
	for stats.Processed+stats.Failed < stats.Total {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var batch []PropertyRecord
		if err := pending.Session(&gorm.Session{}).Order("id").Limit(geocodeBatch).Find(&batch).Error; err != nil {
			return stats, fmt.Errorf("failed to query properties: %w", err)
		}
		if len(batch) == 0 {
			return stats, fmt.Errorf("no properties processed in batch, possible data inconsistency. Total processed: %d/%d",
				stats.Processed+stats.Failed, stats.Total)
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, p := range batch {
				updates := map[string]interface{}{"geocoding_attempted": true}

				point, err := geocoder.Geocode(ctx, p.address())
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if err != nil {
					logger.WithError(err).WithFields(logrus.Fields{
						"property_id": p.ID,
						"address":     p.address(),
					}).Warn("Failed to geocode property")
					stats.Failed++
				} else {
					updates["latitude"] = point.Latitude
					updates["longitude"] = point.Longitude
					stats.Processed++
				}

				if err := tx.Model(&PropertyRecord{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update property %q: %w", p.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return stats, err
		}

		logger.WithFields(logrus.Fields{
			"done":   stats.Processed + stats.Failed,
			"total":  stats.Total,
			"failed": stats.Failed,
		}).Info("Geocoding progress")
	}

	return stats, nil
}
