// Package idle implements the Idle Tracker (spec §4.7): a state machine
// driven by polling the OS "ms since last input" value.
package idle

import (
	"time"

	"github.com/joyshmitz/ultrasearch/internal/model"
)

// Sample is one observation of the idle state machine.
type Sample struct {
	State            model.IdleState
	IdleFor          time.Duration
	SinceStateChange time.Duration
}

// reader returns milliseconds since the last user input, or false if the
// platform can't answer (treated as "active").
type reader func() (ms uint64, ok bool)

// Tracker classifies user activity into Active/WarmIdle/DeepIdle.
type Tracker struct {
	warmIdle   time.Duration
	deepIdle   time.Duration
	read       reader
	lastState  model.IdleState
	lastChange time.Time
}

// New builds a Tracker backed by the real OS idle timer.
func New(warmIdle, deepIdle time.Duration) *Tracker {
	return WithReader(warmIdle, deepIdle, osIdleMillis)
}

// WithReader builds a Tracker with an injectable reader, for tests.
func WithReader(warmIdle, deepIdle time.Duration, read reader) *Tracker {
	if deepIdle < warmIdle {
		panic("idle: deepIdle must be >= warmIdle")
	}
	return &Tracker{
		warmIdle:   warmIdle,
		deepIdle:   deepIdle,
		read:       read,
		lastState:  model.Active,
		lastChange: time.Now(),
	}
}

// Sample reads the current idle state and updates transition bookkeeping.
func (t *Tracker) Sample() Sample {
	ms, ok := t.read()
	if !ok {
		ms = 0
	}
	idleFor := time.Duration(ms) * time.Millisecond
	state := Classify(idleFor, t.warmIdle, t.deepIdle)

	now := time.Now()
	if state != t.lastState {
		t.lastState = state
		t.lastChange = now
	}

	return Sample{
		State:            state,
		IdleFor:          idleFor,
		SinceStateChange: now.Sub(t.lastChange),
	}
}

// Classify maps an idle duration to a state given the two thresholds.
func Classify(idleFor, warmIdle, deepIdle time.Duration) model.IdleState {
	switch {
	case idleFor >= deepIdle:
		return model.DeepIdle
	case idleFor >= warmIdle:
		return model.WarmIdle
	default:
		return model.Active
	}
}
