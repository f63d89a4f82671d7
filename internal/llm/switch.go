package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotConnected is returned by a Switch with no client installed.
var ErrNotConnected = errors.New("no model client configured")

// Invoker is satisfied by *Client.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Switch forwards calls to a replaceable Invoker. It lets long-lived
// components keep one reference while the client is reconfigured.
type Switch struct {
	mu  sync.RWMutex
	inv Invoker
}

// NewSwitch returns a Switch forwarding to inv, which may be nil.
func NewSwitch(inv Invoker) *Switch {
	return &Switch{inv: inv}
}

// Set installs inv. A nil inv disconnects.
func (s *Switch) Set(inv Invoker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inv = inv
}

// Connected reports whether a client is installed.
func (s *Switch) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inv != nil
}

// Invoke forwards to the installed client.
func (s *Switch) Invoke(ctx context.Context, prompt string) (string, error) {
	s.mu.RLock()
	inv := s.inv
	s.mu.RUnlock()

	if inv == nil {
		return "", fmt.Errorf("%w: %w", ErrModelUnavailable, ErrNotConnected)
	}
	return inv.Invoke(ctx, prompt)
}
