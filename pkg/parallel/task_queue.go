package parallel

import (
	"fmt"
	"math"
	"sync"

	"github.com/quvis/engine/pkg/logging"
)

// TaskQueue manages a pool of worker goroutines draining a task channel.
// With a single worker it behaves as a cooperative scheduler: tasks run
// strictly in submission order and a task may requeue a follow-up of
// itself, yielding the queue between turns.
type TaskQueue struct {
	workers   int
	taskQueue chan func()
	logger    logging.Logger
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// MaxWorkers is the maximum number of workers allowed in a queue.
const MaxWorkers = math.MaxInt / 2

// NewTaskQueue creates a task queue with the given number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewTaskQueue(workers int, logger logging.Logger) (*TaskQueue, error) {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	q := &TaskQueue{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		logger:    logger,
	}

	q.start()
	return q, nil
}

// NewSerialQueue creates a single-worker queue for cooperative batch
// processing: one task per turn, resubmission between turns.
func NewSerialQueue(logger logging.Logger) *TaskQueue {
	q, _ := NewTaskQueue(1, logger)
	return q
}

// start initializes the worker goroutines
func (q *TaskQueue) start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// worker processes tasks from the queue
func (q *TaskQueue) worker() {
	defer q.wg.Done()

	for task := range q.taskQueue {
		// Recover from panics in tasks to prevent worker crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					q.logger.Error("task panic recovered",
						logging.Any("panic", r))
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the queue.
// Returns false if the queue is closed, true if the task was accepted.
func (q *TaskQueue) Submit(task func()) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	// Safe to send because we hold the lock and the queue is not closed
	q.taskQueue <- task
	return true
}

// SubmitAsync adds a task to the queue without ever blocking the
// caller. When the buffer is full the handoff moves to a goroutine, so
// a worker can requeue follow-up work for itself without wedging the
// queue. Returns false if the queue is closed; a spilled task is
// dropped if the queue closes before its handoff lands.
func (q *TaskQueue) SubmitAsync(task func()) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.taskQueue <- task:
	default:
		go q.Submit(task)
	}
	return true
}

// Close shuts down the queue and waits for in-flight tasks to finish
func (q *TaskQueue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.taskQueue)
		q.mu.Unlock()
	})
	q.wg.Wait()
}
