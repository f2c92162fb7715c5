// Package guard invokes compile routines one file at a time without letting
// their attempt to end the process escape, and skips work that is up to date.
package guard

import (
	"os"
	"sync"
)

// ExitPolicy decides what "terminate the process with code" means.
type ExitPolicy interface {
	Exit(code int)
}

// ExitFunc adapts a function to ExitPolicy.
type ExitFunc func(code int)

// Exit calls f(code).
func (f ExitFunc) Exit(code int) { f(code) }

// ProcessExit really ends the process.
var ProcessExit ExitPolicy = ExitFunc(os.Exit)

// Hook is the process-exit policy handed to legacy routines in place of a
// direct os.Exit call. A Boundary swaps the policy while it is held.
type Hook struct {
	mu     sync.RWMutex
	policy ExitPolicy
}

// NewHook creates a hook with the given default policy.
// A nil policy means ProcessExit.
func NewHook(policy ExitPolicy) *Hook {
	if policy == nil {
		policy = ProcessExit
	}
	return &Hook{policy: policy}
}

// Exit applies the current policy.
func (h *Hook) Exit(code int) {
	h.mu.RLock()
	p := h.policy
	h.mu.RUnlock()
	p.Exit(code)
}

// Policy returns the current policy.
func (h *Hook) Policy() ExitPolicy {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.policy
}

func (h *Hook) swap(p ExitPolicy) ExitPolicy {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.policy
	h.policy = p
	return prev
}

var _ ExitPolicy = (*Hook)(nil)
