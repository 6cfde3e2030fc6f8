package queue

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Reasons a reload was requested.
const (
	ReasonStartup    = "startup"
	ReasonFileChange = "file_change"
	ReasonSchedule   = "schedule"
	ReasonAPI        = "api"
)

// ReloadRequest asks for the reference data to be loaded again.
type ReloadRequest struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewReloadRequest(reason string) ReloadRequest {
	return ReloadRequest{Reason: reason, RequestedAt: time.Now()}
}

// ReloadQueue is a bounded in-memory queue of reload requests. Pushing never
// blocks: when the queue is full a reload is already pending and the caller
// can drop its request.
type ReloadQueue struct {
	items    chan ReloadRequest
	done     chan struct{}
	stopped  chan struct{}
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(ReloadRequest) error
}

func NewReloadQueue(bufferSize int, logger *logrus.Logger) *ReloadQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if bufferSize < 1 {
		bufferSize = 1
	}

	return &ReloadQueue{
		items:    make(chan ReloadRequest, bufferSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(ReloadRequest) error, 0),
	}
}

// Push enqueues req without blocking.
func (q *ReloadQueue) Push(req ReloadRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- req:
		q.logger.WithField("reason", req.Reason).Debug("Queued reload request")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler called for each request, in subscription order.
func (q *ReloadQueue) Subscribe(handler func(ReloadRequest) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins delivering requests on a single goroutine, so handlers never
// run concurrently with each other.
func (q *ReloadQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

func (q *ReloadQueue) process() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			return
		case req := <-q.items:
			q.dispatch(req)
		}
	}
}

func (q *ReloadQueue) dispatch(req ReloadRequest) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(req); err != nil {
			q.logger.WithError(err).WithField("reason", req.Reason).Error("Handler failed to process reload request")
		}
	}
}

// Close stops delivery and rejects further pushes. It waits for a handler
// that is already running to return. Pending requests are dropped.
func (q *ReloadQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.done)
	q.mu.Unlock()

	if started {
		<-q.stopped
	}
	return nil
}

// Len returns the number of pending requests.
func (q *ReloadQueue) Len() int {
	return len(q.items)
}

func (q *ReloadQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
