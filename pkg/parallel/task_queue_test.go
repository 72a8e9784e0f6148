package parallel

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSerialQueueRunsInOrder(t *testing.T) {
	q := NewSerialQueue(nil)
	defer q.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		if !q.Submit(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}) {
			t.Fatal("Submit rejected on an open queue")
		}
	}
	wg.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("task %d ran out of order: got %d", i, got)
		}
	}
}

func TestSelfRequeue(t *testing.T) {
	q := NewSerialQueue(nil)
	defer q.Close()

	const turns = 10
	done := make(chan struct{})
	count := 0

	var step func()
	step = func() {
		count++
		if count < turns {
			q.SubmitAsync(step)
			return
		}
		close(done)
	}
	q.Submit(step)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("requeue chain did not finish")
	}
	if count != turns {
		t.Errorf("chain ran %d turns, want %d", count, turns)
	}
}

// TestInTaskRequeueDoesNotDeadlock holds the single worker on a gate,
// fills the queue buffer from outside, then has the gated task requeue
// a follow-up. A blocking in-task submit would wedge the worker forever.
func TestInTaskRequeueDoesNotDeadlock(t *testing.T) {
	q := NewSerialQueue(nil)
	defer q.Close()

	release := make(chan struct{})
	followUp := make(chan struct{})

	q.Submit(func() {
		<-release
		if !q.SubmitAsync(func() { close(followUp) }) {
			t.Error("SubmitAsync rejected on an open queue")
		}
	})

	// Fill the buffer while the worker is held on the gate
	q.Submit(func() {})
	q.Submit(func() {})
	close(release)

	select {
	case <-followUp:
	case <-time.After(5 * time.Second):
		t.Fatal("in-task requeue never ran")
	}
}

func TestSubmitAsyncAfterClose(t *testing.T) {
	q := NewSerialQueue(nil)
	q.Close()

	if q.SubmitAsync(func() {}) {
		t.Error("SubmitAsync accepted a task after Close")
	}
}

func TestSubmitAfterClose(t *testing.T) {
	q := NewSerialQueue(nil)
	q.Close()

	if q.Submit(func() {}) {
		t.Error("Submit accepted a task after Close")
	}
}

func TestCloseWaitsForInFlight(t *testing.T) {
	q := NewSerialQueue(nil)

	ran := false
	q.Submit(func() {
		time.Sleep(50 * time.Millisecond)
		ran = true
	})
	q.Close()

	if !ran {
		t.Error("Close returned before the in-flight task finished")
	}
}

func TestTaskPanicDoesNotKillWorker(t *testing.T) {
	q := NewSerialQueue(nil)
	defer q.Close()

	q.Submit(func() { panic("boom") })

	done := make(chan struct{})
	q.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
}

func TestWorkerCountLimit(t *testing.T) {
	if _, err := NewTaskQueue(MaxWorkers+1, nil); !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("NewTaskQueue error = %v, want ErrTooManyWorkers", err)
	}

	// Non-positive counts fall back to a single worker
	q, err := NewTaskQueue(0, nil)
	if err != nil {
		t.Fatalf("NewTaskQueue(0) failed: %v", err)
	}
	q.Close()
}
