package queue

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewReloadQueue(t *testing.T) {
	q := NewReloadQueue(10, testLogger())
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())

	assert.Equal(t, 1, NewReloadQueue(0, nil).maxSize)
}

func TestNewReloadRequest(t *testing.T) {
	before := time.Now()
	req := NewReloadRequest(ReasonSchedule)
	assert.Equal(t, "schedule", req.Reason)
	assert.False(t, req.RequestedAt.Before(before))

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reason":"schedule"`)
}

func TestReloadQueue_Push(t *testing.T) {
	q := NewReloadQueue(2, testLogger())

	err := q.Push(NewReloadRequest(ReasonStartup))
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	assert.NoError(t, q.Push(NewReloadRequest(ReasonAPI)))
	err = q.Push(NewReloadRequest(ReasonAPI))
	assert.Equal(t, ErrQueueFull, err)

	q.Close()
	err = q.Push(NewReloadRequest(ReasonAPI))
	assert.Equal(t, ErrQueueClosed, err)
}

func TestReloadQueue_Subscribe(t *testing.T) {
	q := NewReloadQueue(10, testLogger())
	defer q.Close()

	received := make(chan ReloadRequest, 2)
	q.Subscribe(func(req ReloadRequest) error {
		received <- req
		return nil
	})
	q.Start()

	require.NoError(t, q.Push(NewReloadRequest(ReasonFileChange)))
	require.NoError(t, q.Push(NewReloadRequest(ReasonSchedule)))

	for _, expected := range []string{ReasonFileChange, ReasonSchedule} {
		select {
		case req := <-received:
			assert.Equal(t, expected, req.Reason)
			assert.False(t, req.RequestedAt.IsZero())
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", expected)
		}
	}
}

func TestReloadQueue_HandlersRunInOrder(t *testing.T) {
	q := NewReloadQueue(10, testLogger())
	defer q.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var calls []int

	for i := 0; i < 3; i++ {
		i := i
		wg.Add(1)
		q.Subscribe(func(ReloadRequest) error {
			mu.Lock()
			calls = append(calls, i)
			mu.Unlock()
			wg.Done()
			if i == 1 {
				return errors.New("handler failed")
			}
			return nil
		})
	}
	q.Start()

	require.NoError(t, q.Push(NewReloadRequest(ReasonAPI)))
	wg.Wait()

	mu.Lock()
	assert.Equal(t, []int{0, 1, 2}, calls, "a failing handler does not stop the others")
	mu.Unlock()
}

func TestReloadQueue_CloseWaitsForHandler(t *testing.T) {
	q := NewReloadQueue(1, testLogger())

	entered := make(chan struct{})
	var finished bool
	q.Subscribe(func(ReloadRequest) error {
		close(entered)
		time.Sleep(50 * time.Millisecond)
		finished = true
		return nil
	})
	q.Start()

	require.NoError(t, q.Push(NewReloadRequest(ReasonAPI)))
	<-entered

	assert.NoError(t, q.Close())
	assert.True(t, finished)
	assert.True(t, q.IsClosed())

	// Second close is a no-op.
	assert.NoError(t, q.Close())
}

func TestReloadQueue_CloseWithoutStart(t *testing.T) {
	q := NewReloadQueue(1, testLogger())
	assert.NoError(t, q.Close())
	q.Start()
	assert.True(t, q.IsClosed())
}
