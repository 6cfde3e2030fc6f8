package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"buyerradar/server/internal/dataset"
	"buyerradar/server/internal/metrics"
)

// ResultCache memoizes query results. Keys embed the snapshot version, so an
// entry written against an older snapshot is never read after a reload.
type ResultCache interface {
	Get(ctx context.Context, key string) (*Results, bool, error)
	Set(ctx context.Context, key string, results *Results) error
}

// Service runs queries against the snapshot currently published in a Store.
type Service struct {
	store  *dataset.Store
	cache  ResultCache
	logger *logrus.Logger
}

// NewService creates a query service. cache may be nil.
func NewService(store *dataset.Store, cache ResultCache, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Service{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// CacheKey identifies the results of p against snapshot version.
func CacheKey(version uint64, p Params) string {
	return fmt.Sprintf("buyers:v%d:%g,%g:r%g:m%d:%s:s%s:n%d",
		version,
		p.Center.Latitude, p.Center.Longitude,
		p.RadiusMiles,
		p.Months,
		p.Category,
		SinceDate(p.Now, p.Months),
		p.segments(),
	)
}

// Query validates p, picks up the current snapshot once and runs the query
// against it.
func (s *Service) Query(ctx context.Context, p Params) (*Results, error) {
	start := time.Now()
	results, err := s.query(ctx, p)

	metrics.QueryDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	metrics.QueriesTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.QueryResultBuyers.Observe(float64(len(results.Summaries)))
	return results, nil
}

func (s *Service) query(ctx context.Context, p Params) (*Results, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	snap := s.store.Current()
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	key := CacheKey(snap.Version, p)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Result cache lookup failed")
		} else if ok {
			metrics.CacheHitsTotal.Inc()
			return cached, nil
		} else {
			metrics.CacheMissesTotal.Inc()
		}
	}

	results, err := Run(snap, p)
	if err != nil {
		if errors.Is(err, ErrDataIntegrity) {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"snapshot_version": snap.Version,
				"snapshot_source":  snap.Source,
			}).Error("Reference data integrity violation")
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, results); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to store query results")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"latitude":         p.Center.Latitude,
		"longitude":        p.Center.Longitude,
		"radius_miles":     p.RadiusMiles,
		"months":           p.Months,
		"category":         p.Category,
		"buyers":           len(results.Summaries),
		"snapshot_version": snap.Version,
	}).Debug("Buyer activity query completed")

	return results, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrDataIntegrity):
		return "data_integrity"
	case errors.Is(err, ErrNoSnapshot):
		return "unavailable"
	default:
		return "error"
	}
}
