package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanShutdownWhenAllTasksComplete(t *testing.T) {
	co := New("test")

	co.SpawnTask("quick", func(ctx context.Context) error {
		return nil
	})

	err := co.WaitForShutdown(time.Second)
	require.NoError(t, err)
	assert.Equal(t, StateTerminated, co.State())
}

func TestTaskFailureCancelsSiblings(t *testing.T) {
	co := New("test")
	boom := errors.New("boom")

	siblingDone := make(chan struct{})
	co.SpawnTask("sibling", func(ctx context.Context) error {
		<-ctx.Done()
		close(siblingDone)
		return nil
	})
	co.SpawnTask("failing", func(ctx context.Context) error {
		return boom
	})

	err := co.WaitForShutdown(time.Second)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "failing", taskErr.Task)
	assert.ErrorIs(t, err, boom)

	select {
	case <-siblingDone:
	default:
		t.Fatal("sibling task did not observe cancellation")
	}
}

func TestFirstErrorWins(t *testing.T) {
	co := New("test")
	first := errors.New("first")

	co.SpawnTask("a", func(ctx context.Context) error {
		return first
	})
	co.SpawnTask("b", func(ctx context.Context) error {
		<-ctx.Done()
		return errors.New("second")
	})

	err := co.WaitForShutdown(time.Second)
	assert.ErrorIs(t, err, first)
}

func TestGracePeriodBoundsHungTask(t *testing.T) {
	co := New("test")

	// Ignores the token entirely; only the grace timer gets us out.
	co.SpawnTask("hung", func(ctx context.Context) error {
		select {}
	})

	co.Cancel()

	start := time.Now()
	err := co.WaitForShutdown(30 * time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, StateTerminated, co.State())
}

func TestCancelTransitionsState(t *testing.T) {
	co := New("test")
	assert.Equal(t, StateRunning, co.State())

	co.Cancel()
	assert.Equal(t, StateCancelRequested, co.State())

	select {
	case <-co.Token().Done():
	case <-time.After(time.Second):
		t.Fatal("token not cancelled")
	}

	// Cancel is idempotent and records no error.
	co.Cancel()
	assert.NoError(t, co.Err())
}

func TestSpawnAfterWaitPanics(t *testing.T) {
	co := New("test")
	require.NoError(t, co.WaitForShutdown(time.Millisecond))

	assert.Panics(t, func() {
		co.SpawnTask("late", func(ctx context.Context) error { return nil })
	})
	assert.Panics(t, func() {
		co.Guard("late")
	})
}

func TestGuardFailureCancelsToken(t *testing.T) {
	co := New("test")
	boom := errors.New("boom")

	g := co.Guard("node")
	go func() {
		defer g.Done()
		<-time.After(5 * time.Millisecond)
		g.Fail(boom)
	}()

	err := co.WaitForShutdown(time.Second)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "node", taskErr.Task)
	assert.ErrorIs(t, err, boom)
}

func TestGuardDoneIsIdempotent(t *testing.T) {
	co := New("test")
	g := co.Guard("node")

	g.Done()
	g.Done()

	require.NoError(t, co.WaitForShutdown(time.Second))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "cancel_requested", StateCancelRequested.String())
	assert.Equal(t, "draining", StateDraining.String())
	assert.Equal(t, "terminated", StateTerminated.String())
}
