package scheduler

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"buyerradar/server/internal/queue"
)

// Pusher accepts reload requests.
type Pusher interface {
	Push(req queue.ReloadRequest) error
}

// Scheduler requests a reference data reload at a fixed interval.
type Scheduler struct {
	pusher   Pusher
	interval time.Duration
	logger   *logrus.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(pusher Pusher, interval time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		pusher:   pusher,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins ticking. A non-positive interval disables the scheduler.
func (s *Scheduler) Start() {
	if s.interval <= 0 {
		s.logger.Info("Periodic reload disabled")
		return
	}

	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.logger.WithField("interval", s.interval.String()).Info("Periodic reload scheduled")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.tick(t)
		}
	}
}

func (s *Scheduler) tick(t time.Time) {
	err := s.pusher.Push(queue.ReloadRequest{Reason: queue.ReasonSchedule, RequestedAt: t})
	switch {
	case err == nil:
		s.logger.WithField("at", t.Format(time.RFC3339)).Debug("Scheduled reload requested")
	case errors.Is(err, queue.ErrQueueFull):
		s.logger.Debug("Skipping scheduled reload, one is already pending")
	default:
		s.logger.WithError(err).Warn("Failed to request scheduled reload")
	}
}

// Stop halts the ticker and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}
