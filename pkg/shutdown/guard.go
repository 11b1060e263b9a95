package shutdown

import (
	"context"
	"fmt"
	"sync"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/pkg/metrics"
)

// TaskError wraps a task failure with the task's name so the process exit
// message identifies which unit brought the cluster down.
type TaskError struct {
	Task  string
	Cause error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Cause)
}

func (e *TaskError) Unwrap() error {
	return e.Cause
}

// Guard is a scoped registration for components that run their own
// goroutines rather than being expressed as spawned tasks. It participates
// in the same bookkeeping: WaitForShutdown waits for Done, and Fail cancels
// the shared token like a spawned task's error return would.
type Guard struct {
	name string
	c    *Coordinator
	once sync.Once
}

// Guard registers a named scope and returns its handle. Like SpawnTask it
// must not be called once WaitForShutdown has begun.
func (c *Coordinator) Guard(name string) *Guard {
	if c.frozen.Load() {
		panic("shutdown: Guard called after WaitForShutdown")
	}

	c.wg.Add(1)
	metrics.TasksRunning.Inc()
	logger.Debug("guard registered", logger.Service(c.service), logger.Task(name))

	return &Guard{name: name, c: c}
}

// Token returns the shared cancellation signal.
func (g *Guard) Token() context.Context {
	return g.c.ctx
}

// Fail records the component's failure and requests coordinator-wide
// cancellation. It does not release the registration; call Done as well.
func (g *Guard) Fail(err error) {
	if err == nil {
		return
	}
	logger.Error("task failed",
		logger.Service(g.c.service), logger.Task(g.name), logger.Err(err))
	metrics.TaskFailures.WithLabelValues(g.name).Inc()
	g.c.requestCancel(&TaskError{Task: g.name, Cause: err})
}

// Done releases the registration. Safe to call more than once.
func (g *Guard) Done() {
	g.once.Do(func() {
		metrics.TasksRunning.Dec()
		g.c.wg.Done()
	})
}
