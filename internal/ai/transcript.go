package ai

import (
	"sync"
	"time"
)

// Role identifies the sender of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single displayed chat message.
type Turn struct {
	Role    Role
	Content string
	At      time.Time
}

// Transcript keeps the chat turns shown on screen, dropping the oldest once
// the limit is reached. It is display state only and is never sent to the
// model.
type Transcript struct {
	mu       sync.Mutex
	turns    []Turn
	maxTurns int
}

// NewTranscript creates a transcript holding at most maxTurns turns. A
// non-positive limit defaults to 20.
func NewTranscript(maxTurns int) *Transcript {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Transcript{
		turns:    make([]Turn, 0, maxTurns),
		maxTurns: maxTurns,
	}
}

// Add appends a turn.
func (t *Transcript) Add(role Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.turns = append(t.turns, Turn{Role: role, Content: content, At: time.Now()})
	if excess := len(t.turns) - t.maxTurns; excess > 0 {
		t.turns = append(t.turns[:0], t.turns[excess:]...)
	}
}

// Turns returns a copy of the current turns, oldest first.
func (t *Transcript) Turns() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]Turn, len(t.turns))
	copy(result, t.turns)
	return result
}

// Reset clears the transcript.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.turns = t.turns[:0]
}

// Len returns the number of turns held.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.turns)
}
