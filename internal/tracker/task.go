package tracker

import (
	"context"
	"sync/atomic"
	"time"
)

// Task is a deferred action owned by the Manager.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	fired  atomic.Bool
}

// Cancel stops the task if it has not run yet.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the task ran or was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until Done and reports whether the action ran.
func (t *Task) Wait() bool {
	<-t.done
	return t.fired.Load()
}

func cancelledTask() *Task {
	t := &Task{cancel: func() {}, done: make(chan struct{})}
	close(t.done)
	return t
}

// schedule runs fn after delay unless the task or the manager is cancelled first.
// Callers hold m.mu.
func (m *Manager) schedule(delay time.Duration, fn func()) *Task {
	if m.closed {
		return cancelledTask()
	}

	ctx, cancel := context.WithCancel(m.tasksCtx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		defer close(t.done)
		defer cancel()

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		t.fired.Store(true)
		fn()
	}()
	return t
}
