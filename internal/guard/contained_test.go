package guard

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// exitingRoutine behaves like a legacy compiler entry point: it writes a
// diagnostic and ends by exiting through the hook.
func exitingRoutine(hook *Hook, code int) Routine {
	return func(stderr io.Writer, level, source, target string) {
		if code != 0 {
			fmt.Fprintf(stderr, "ERROR - %s failed at %s\n", source, level)
		}
		hook.Exit(code)
	}
}

func TestContained_ExitZeroIsSuccess(t *testing.T) {
	rec := &recordingExit{}
	hook := NewHook(rec)
	b := NewBoundary(hook)
	c := Contained(b, exitingRoutine(hook, 0))

	ctx, release := b.Acquire(context.Background())
	defer release()

	err := c.Compile(ctx, "SIMPLE", "a.js", "b.js")

	require.NoError(t, err)
	assert.Empty(t, rec.Codes())
}

func TestContained_NonZeroExitIsCompileError(t *testing.T) {
	rec := &recordingExit{}
	hook := NewHook(rec)
	b := NewBoundary(hook)
	c := Contained(b, exitingRoutine(hook, 2))

	ctx, release := b.Acquire(context.Background())
	defer release()

	err := c.Compile(ctx, "ADVANCED", "a.js", "b.js")

	var compileErr *domain.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, 2, compileErr.ExitCode)
	assert.Equal(t, "a.js", compileErr.Source)
	assert.Equal(t, "ERROR - a.js failed at ADVANCED", compileErr.Stderr)
	assert.Empty(t, rec.Codes())
}

func TestContained_PlainReturnIsSuccess(t *testing.T) {
	b := NewBoundary(NewHook(&recordingExit{}))
	c := Contained(b, func(io.Writer, string, string, string) {})

	ctx, release := b.Acquire(context.Background())
	defer release()

	assert.NoError(t, c.Compile(ctx, "", "a.js", "b.js"))
}

func TestContained_PanicIsCompileError(t *testing.T) {
	b := NewBoundary(NewHook(&recordingExit{}))
	c := Contained(b, func(io.Writer, string, string, string) { panic("internal compiler error") })

	ctx, release := b.Acquire(context.Background())
	defer release()

	err := c.Compile(ctx, "", "a.js", "b.js")

	var compileErr *domain.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, -1, compileErr.ExitCode)
	assert.Contains(t, err.Error(), "internal compiler error")
}

func TestContained_WithoutBoundaryNeverExits(t *testing.T) {
	rec := &recordingExit{}
	hook := NewHook(rec)
	c := Contained(NewBoundary(hook), exitingRoutine(hook, 0))

	err := c.Compile(context.Background(), "", "a.js", "b.js")

	require.ErrorIs(t, err, domain.ErrBoundaryNotHeld)
	assert.Empty(t, rec.Codes())
}

func TestContained_OtherCallerWhileHeld(t *testing.T) {
	rec := &recordingExit{}
	hook := NewHook(rec)
	b := NewBoundary(hook)
	called := false
	c := Contained(b, func(io.Writer, string, string, string) {
		called = true
		hook.Exit(1)
	})

	_, release := b.Acquire(context.Background())
	defer release()

	err := c.Compile(context.Background(), "", "a.js", "b.js")

	require.ErrorIs(t, err, domain.ErrBoundaryNotHeld)
	assert.False(t, called)
	assert.Empty(t, rec.Codes())
}

func TestContained_CancelledContext(t *testing.T) {
	b := NewBoundary(NewHook(&recordingExit{}))
	called := false
	c := Contained(b, func(io.Writer, string, string, string) { called = true })

	held, release := b.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithCancel(held)
	cancel()

	err := c.Compile(ctx, "", "a.js", "b.js")

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestContained_RepeatedInvocations(t *testing.T) {
	rec := &recordingExit{}
	hook := NewHook(rec)
	b := NewBoundary(hook)
	calls := 0
	c := Contained(b, func(stderr io.Writer, level, source, target string) {
		calls++
		hook.Exit(0)
	})

	ctx, release := b.Acquire(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Compile(ctx, "", "a.js", "b.js"))
	}
	release()

	assert.Equal(t, 5, calls)
	assert.Empty(t, rec.Codes())

	// Outside the batch the real policy is back in charge
	hook.Exit(9)
	assert.Equal(t, []int{9}, rec.Codes())
}
