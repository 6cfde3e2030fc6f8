package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"buyerradar/server/config"
	"buyerradar/server/internal/dataset"
	"buyerradar/server/internal/metrics"
	"buyerradar/server/internal/queue"
)

// ReloadProcessor loads reference data from a Source and publishes it to a
// Store, retrying failed loads.
type ReloadProcessor struct {
	source dataset.Source
	store  *dataset.Store
	queue  *queue.ReloadQueue
	config *config.Config
	logger *logrus.Logger

	// serializes reloads triggered directly and through the queue
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewReloadProcessor(source dataset.Source, store *dataset.Store, q *queue.ReloadQueue, cfg *config.Config, logger *logrus.Logger) *ReloadProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ReloadProcessor{
		source: source,
		store:  store,
		queue:  q,
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the processor to its queue.
func (p *ReloadProcessor) Start() {
	p.queue.Subscribe(func(req queue.ReloadRequest) error {
		_, err := p.Reload(p.ctx, req.Reason)
		return err
	})
}

// Stop aborts a reload that is waiting to retry. The queue is closed by its owner.
func (p *ReloadProcessor) Stop() {
	p.cancel()
}

// Reload loads and publishes a new snapshot, making up to MaxRetries further
// attempts after a failure. The published snapshot is left untouched when
// every attempt fails. Records that fail validation are not retried, since
// loading the same data again cannot fix them.
func (p *ReloadProcessor) Reload(ctx context.Context, reason string) (*dataset.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	maxRetries := p.config.Reload.MaxRetries

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying reference data load, attempt %d of %d", attempt, maxRetries)
			select {
			case <-ctx.Done():
				metrics.ReloadsTotal.WithLabelValues("failure").Inc()
				return nil, fmt.Errorf("reload cancelled: %w", ctx.Err())
			case <-time.After(p.config.RetryDelay()):
			}
		}

		var snap *dataset.Snapshot
		snap, err = p.load(ctx)
		if err == nil {
			p.published(snap, reason, time.Since(start))
			return snap, nil
		}

		p.logger.WithError(err).WithFields(logrus.Fields{
			"source":  p.source.Name(),
			"attempt": attempt,
		}).Error("Reference data load failed")

		if rejected(err) {
			metrics.ReloadsTotal.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("reference data rejected: %w", err)
		}
	}

	metrics.ReloadsTotal.WithLabelValues("failure").Inc()
	return nil, fmt.Errorf("failed to reload reference data after %d attempts: %w", maxRetries+1, err)
}

func rejected(err error) bool {
	return errors.Is(err, dataset.ErrInvalidRecord) || errors.Is(err, dataset.ErrDuplicateID)
}

func (p *ReloadProcessor) load(ctx context.Context) (*dataset.Snapshot, error) {
	c, err := p.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return p.store.Replace(c, p.source.Name())
}

func (p *ReloadProcessor) published(snap *dataset.Snapshot, reason string, took time.Duration) {
	buyers, properties, events := snap.Counts()

	metrics.ReloadsTotal.WithLabelValues("success").Inc()
	metrics.SnapshotVersion.Set(float64(snap.Version))
	metrics.SnapshotEvents.Set(float64(events))

	fields := logrus.Fields{
		"version":     snap.Version,
		"source":      snap.Source,
		"reason":      reason,
		"buyers":      buyers,
		"properties":  properties,
		"events":      events,
		"duration_ms": took.Milliseconds(),
	}
	p.logger.WithFields(fields).Info("Published reference data snapshot")

	if dangling := snap.DanglingReferences(); dangling > 0 {
		p.logger.WithFields(fields).WithField("dangling_events", dangling).
			Warn("Snapshot contains events with unknown buyers or properties; queries reaching them will fail")
	}
}
