// Package cue plays short audible feedback when a session is completed.
package cue

import (
	"io"
	"sync"
)

// Kind selects which cue is played.
type Kind int

const (
	// Session marks a single completed session.
	Session Kind = iota
	// Goal marks the session that completes the daily goal.
	Goal
)

// Player plays cues. Implementations must not block for long; the tracker
// calls Play while holding its lock.
type Player interface {
	Play(kind Kind)
}

// Nop discards every cue.
type Nop struct{}

// Play does nothing.
func (Nop) Play(Kind) {}

const bel = "\a"

// Bell rings the terminal bell: once for a session, twice for the goal.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell returns a Bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Play writes the bell characters for kind. Write errors are ignored; a
// missing cue never affects the ledger.
func (b *Bell) Play(kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	seq := bel
	if kind == Goal {
		seq = bel + bel
	}
	_, _ = io.WriteString(b.w, seq)
}

// Recorder keeps every played cue, for tests.
type Recorder struct {
	mu     sync.Mutex
	played []Kind
}

// Play records kind.
func (r *Recorder) Play(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, kind)
}

// Played returns a copy of the recorded cues.
func (r *Recorder) Played() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Kind(nil), r.played...)
}
