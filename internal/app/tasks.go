package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Tasks runs fire-and-forget work bound to an application's lifetime. Callers
// never wait for a task; results reach the UI through state changes. Every
// error is logged, and tasks are cancelled when the application unmounts.
type Tasks struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
	running int
	// idle is closed whenever no task is running.
	idle chan struct{}
}

func newTasks(logger *slog.Logger) *Tasks {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Tasks{ctx: ctx, cancel: cancel, logger: logger, idle: idle}
}

// Context is cancelled when the tasks are stopped.
func (t *Tasks) Context() context.Context {
	return t.ctx
}

// Go starts fn in the background. It reports false if the runner is stopped.
func (t *Tasks) Go(name string, fn func(ctx context.Context) error) bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		t.logger.Debug("Task rejected after stop", "task", name)
		return false
	}
	if t.running == 0 {
		t.idle = make(chan struct{})
	}
	t.running++
	t.mu.Unlock()

	go func() {
		defer t.done()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("Task panicked", "task", name, "panic", fmt.Sprint(r))
			}
		}()
		if err := fn(t.ctx); err != nil {
			t.logger.Warn("Task failed", "task", name, "error", err)
		}
	}()
	return true
}

func (t *Tasks) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running--
	if t.running == 0 {
		close(t.idle)
	}
}

func (t *Tasks) idleCh() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idle
}

// Wait blocks until no task is running.
func (t *Tasks) Wait() {
	<-t.idleCh()
}

// WaitContext is Wait bounded by ctx.
func (t *Tasks) WaitContext(ctx context.Context) error {
	select {
	case <-t.idleCh():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels running tasks, rejects new ones and waits for the running ones.
func (t *Tasks) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.cancel()
	t.Wait()
}
