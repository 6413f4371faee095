// Package ratelimit implements the escalating cooldown applied to
// per-identity actions such as suggestion submission.
package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited is wrapped by callers that turn a denied Decision into an error.
var ErrRateLimited = errors.New("rate limit exceeded")

// DefaultLadder is the escalating sequence of cooldowns: one minute, five,
// ten, thirty, then an hour for every further action that day.
var DefaultLadder = []time.Duration{
	60 * time.Second,
	300 * time.Second,
	600 * time.Second,
	1800 * time.Second,
	3600 * time.Second,
}

// CooldownState is the per-identity quota state. It belongs to the caller's
// session and is passed in explicitly; the ladder keeps no state of its own.
type CooldownState struct {
	LastAction time.Time
	Level      int
}

// Decision is the outcome of TryConsume.
type Decision struct {
	Allowed bool
	// RemainingMinutes is set when denied; always at least 1.
	RemainingMinutes int
	// Level is the state level after the call.
	Level int
}

// Err returns nil for an allowed decision and an error wrapping
// ErrRateLimited otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("wait another %d minute(s): %w", d.RemainingMinutes, ErrRateLimited)
}

// Ladder applies an escalating cooldown sequence.
type Ladder struct {
	steps []time.Duration
}

// NewLadder creates a Ladder from the given steps. An empty slice uses DefaultLadder.
func NewLadder(steps []time.Duration) (*Ladder, error) {
	if len(steps) == 0 {
		steps = DefaultLadder
	}
	for i, s := range steps {
		if s <= 0 {
			return nil, fmt.Errorf("cooldown step %d must be positive, got %s", i, s)
		}
	}
	return &Ladder{steps: append([]time.Duration(nil), steps...)}, nil
}

// NewLadderFromSeconds is NewLadder for config values expressed in seconds.
func NewLadderFromSeconds(seconds []int) (*Ladder, error) {
	steps := make([]time.Duration, len(seconds))
	for i, s := range seconds {
		steps[i] = time.Duration(s) * time.Second
	}
	return NewLadder(steps)
}

// Steps returns a copy of the ladder.
func (l *Ladder) Steps() []time.Duration {
	return append([]time.Duration(nil), l.steps...)
}

// TryConsume checks the state against the ladder at time now. When allowed,
// the state records now and advances one level, capped at the last step.
// When denied, the state is left as it was apart from a day rollover reset.
func (l *Ladder) TryConsume(state *CooldownState, now time.Time) Decision {
	if !state.LastAction.IsZero() {
		if laterDay(state.LastAction, now) && state.Level > 0 {
			state.Level = 0
		}
		level := min(state.Level, len(l.steps)-1)
		elapsed := now.Sub(state.LastAction)
		if cooldown := l.steps[level]; elapsed < cooldown {
			return Decision{
				Allowed:          false,
				RemainingMinutes: remainingMinutes(cooldown - elapsed),
				Level:            state.Level,
			}
		}
	}

	state.LastAction = now
	if state.Level < len(l.steps)-1 {
		state.Level++
	}
	return Decision{Allowed: true, Level: state.Level}
}

// laterDay reports whether now falls on a later calendar date than last,
// compared in now's location.
func laterDay(last, now time.Time) bool {
	ly, lm, ld := last.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	lastDay := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return nowDay.After(lastDay)
}

// remainingMinutes rounds up to whole minutes with a floor of one.
func remainingMinutes(d time.Duration) int {
	m := int((d + time.Minute - 1) / time.Minute)
	return max(1, m)
}
