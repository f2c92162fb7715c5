package guard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// exitSignal carries an intercepted exit code up to Contain.
type exitSignal struct {
	code int
}

// trap turns an exit attempt into a panic that Contain recovers.
type trap struct{}

func (trap) Exit(code int) { panic(exitSignal{code: code}) }

// Boundary is the containment boundary around a hook. Only one holder at a
// time: Acquire blocks while another batch holds it.
type Boundary struct {
	hook   *Hook
	mu     sync.Mutex
	gen    uint64
	holder atomic.Pointer[holder]
}

// holder identifies one Acquire. Contexts carry it under holderKey.
type holder struct {
	gen uint64
}

type holderKey struct{ b *Boundary }

// NewBoundary creates a boundary over hook.
func NewBoundary(hook *Hook) *Boundary {
	return &Boundary{hook: hook}
}

// Hook returns the hook this boundary guards.
func (b *Boundary) Hook() *Hook {
	return b.hook
}

// Acquire installs the trap and records the caller as holder. The returned
// context identifies the holder to Contain; release restores the previous
// policy and is safe to call more than once.
func (b *Boundary) Acquire(ctx context.Context) (context.Context, func()) {
	b.mu.Lock()
	prev := b.hook.swap(trap{})
	b.gen++
	h := &holder{gen: b.gen}
	b.holder.Store(h)

	var once sync.Once
	release := func() {
		once.Do(func() {
			b.holder.Store(nil)
			b.hook.swap(prev)
			b.mu.Unlock()
		})
	}
	return context.WithValue(ctx, holderKey{b}, h), release
}

// Held reports whether some batch currently holds the boundary.
func (b *Boundary) Held() bool {
	return b.holder.Load() != nil
}

// holds reports whether ctx came from the current Acquire.
func (b *Boundary) holds(ctx context.Context) bool {
	h, _ := ctx.Value(holderKey{b}).(*holder)
	return h != nil && h == b.holder.Load()
}

// Contain runs fn with exit attempts intercepted. exited reports whether fn
// tried to terminate, and code is the status it asked for. Any other panic is
// returned as err. fn must call the hook on the calling goroutine.
// Only the holder may contain: ctx must derive from the context returned by
// the current Acquire, otherwise fn is not run and ErrBoundaryNotHeld is
// returned.
func (b *Boundary) Contain(ctx context.Context, fn func()) (code int, exited bool, err error) {
	if !b.holds(ctx) {
		return 0, false, domain.ErrBoundaryNotHeld
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if sig, ok := r.(exitSignal); ok {
			code, exited, err = sig.code, true, nil
			return
		}
		code, exited, err = 0, false, fmt.Errorf("routine panicked: %v", r)
	}()

	fn()
	return 0, false, nil
}
