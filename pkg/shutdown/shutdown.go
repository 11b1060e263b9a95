// Package shutdown supervises the long-running tasks of a weir process and
// coordinates their graceful termination.
//
// A Coordinator owns a named set of tasks. The first task failure, or an
// external termination signal, cancels a shared token that every task
// observes cooperatively; nothing is preempted. WaitForShutdown then gives
// outstanding tasks a bounded grace period before giving up, after which
// the caller is expected to exit the process.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/pkg/metrics"
)

// State is the coordinator lifecycle state.
type State int32

const (
	// StateRunning is the initial state.
	StateRunning State = iota

	// StateCancelRequested means a task failed or a termination signal
	// arrived; the shared token is cancelled.
	StateCancelRequested

	// StateDraining means the grace timer is armed and the coordinator is
	// waiting for outstanding tasks.
	StateDraining

	// StateTerminated is terminal; no transition leaves it.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCancelRequested:
		return "cancel_requested"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Coordinator supervises a set of named tasks and provides the single exit
// point for a weir process.
type Coordinator struct {
	service string

	ctx    context.Context
	cancel context.CancelFunc

	wg     sync.WaitGroup
	state  atomic.Int32
	frozen atomic.Bool

	mu       sync.Mutex
	firstErr error

	sigCh chan os.Signal
}

// New creates a Coordinator in the Running state and installs handling for
// SIGINT/SIGTERM. A signal requests cancellation exactly like a task
// failure does.
func New(service string) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		service: service,
		ctx:     ctx,
		cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	c.state.Store(int32(StateRunning))

	signal.Notify(c.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c.sigCh)
		select {
		case sig := <-c.sigCh:
			logger.Info("termination signal received",
				logger.Service(c.service), "signal", sig.String())
			c.requestCancel(nil)
		case <-c.ctx.Done():
		}
	}()

	return c
}

// requestCancel transitions Running to CancelRequested and cancels the
// shared token. The first recorded error wins; later ones are dropped.
func (c *Coordinator) requestCancel(err error) {
	if err != nil {
		c.mu.Lock()
		if c.firstErr == nil {
			c.firstErr = err
		}
		c.mu.Unlock()
	}

	if c.state.CompareAndSwap(int32(StateRunning), int32(StateCancelRequested)) {
		logger.Info("cancellation requested",
			logger.Service(c.service), logger.KeyState, StateCancelRequested.String())
	}
	c.cancel()
}

// Cancel requests a clean shutdown, exactly as a termination signal would.
func (c *Coordinator) Cancel() {
	c.requestCancel(nil)
}

// State returns the current coordinator state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Token exposes the shared cooperative-cancellation signal. Tasks must
// observe it at their suspension points; it is the only cross-task
// cancellation mechanism.
func (c *Coordinator) Token() context.Context {
	return c.ctx
}

// Err returns the first recorded task error, if any.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.firstErr
}

// SpawnTask registers and starts a named task. The task receives the shared
// token as its context. A non-nil return cancels the token for every
// sibling; normal completion only releases the task's registration.
//
// The task set is append-only during startup and frozen once
// WaitForShutdown begins; spawning after that is a programming error.
func (c *Coordinator) SpawnTask(name string, task func(ctx context.Context) error) {
	if c.frozen.Load() {
		panic("shutdown: SpawnTask called after WaitForShutdown")
	}

	c.wg.Add(1)
	metrics.TasksRunning.Inc()
	logger.Debug("task registered", logger.Service(c.service), logger.Task(name))

	go func() {
		defer c.wg.Done()
		defer metrics.TasksRunning.Dec()

		if err := task(c.ctx); err != nil {
			logger.Error("task failed",
				logger.Service(c.service), logger.Task(name), logger.Err(err))
			metrics.TaskFailures.WithLabelValues(name).Inc()
			c.requestCancel(&TaskError{Task: name, Cause: err})
			return
		}
		logger.Debug("task completed", logger.Service(c.service), logger.Task(name))
	}()
}

// WaitForShutdown blocks until every registered task completes, or until
// the grace period elapses after cancellation was requested, whichever
// comes first. Tasks are always given at least grace to observe the token;
// after that the coordinator returns regardless of outstanding tasks and
// the caller should exit the process.
//
// The returned error is the first task failure, or nil for a clean
// shutdown.
func (c *Coordinator) WaitForShutdown(grace time.Duration) error {
	c.frozen.Store(true)

	allDone := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
		c.requestCancel(nil)

	case <-c.ctx.Done():
		c.state.Store(int32(StateDraining))
		logger.Info("draining tasks",
			logger.Service(c.service), logger.KeyState, StateDraining.String(), "grace", grace.String())

		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-allDone:
		case <-timer.C:
			logger.Warn("grace period elapsed with tasks still outstanding",
				logger.Service(c.service), "grace", grace.String())
		}
	}

	c.state.Store(int32(StateTerminated))
	logger.Info("shutdown complete",
		logger.Service(c.service), logger.KeyState, StateTerminated.String())
	return c.Err()
}
