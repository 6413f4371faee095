package ratelimit

import (
	"errors"
	"testing"
	"time"
)

func mustLadder(t *testing.T) *Ladder {
	t.Helper()
	l, err := NewLadder(nil)
	if err != nil {
		t.Fatalf("NewLadder() error = %v", err)
	}
	return l
}

func TestLadder_TryConsume_FirstActionAllowed(t *testing.T) {
	t.Parallel()
	l := mustLadder(t)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	var st CooldownState
	d := l.TryConsume(&st, now)
	if !d.Allowed {
		t.Fatal("first action denied, want allowed")
	}
	if st.Level != 1 {
		t.Errorf("Level = %d, want 1", st.Level)
	}
	if !st.LastAction.Equal(now) {
		t.Errorf("LastAction = %v, want %v", st.LastAction, now)
	}
}

func TestLadder_TryConsume_Sequence(t *testing.T) {
	t.Parallel()
	l := mustLadder(t)
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		offset      time.Duration
		wantAllowed bool
		wantMinutes int
		wantLevel   int
	}{
		{name: "first", offset: 0, wantAllowed: true, wantLevel: 1},
		{name: "30s later is inside the 300s step", offset: 30 * time.Second, wantAllowed: false, wantMinutes: 5, wantLevel: 1},
		{name: "301s after first", offset: 301 * time.Second, wantAllowed: true, wantLevel: 2},
		{name: "3 minutes later is inside the 600s step", offset: 301*time.Second + 3*time.Minute, wantAllowed: false, wantMinutes: 7, wantLevel: 2},
		{name: "601s after second", offset: 301*time.Second + 601*time.Second, wantAllowed: true, wantLevel: 3},
	}

	var st CooldownState
	for _, tt := range tests {
		d := l.TryConsume(&st, start.Add(tt.offset))
		if d.Allowed != tt.wantAllowed {
			t.Fatalf("%s: Allowed = %v, want %v", tt.name, d.Allowed, tt.wantAllowed)
		}
		if !tt.wantAllowed && d.RemainingMinutes != tt.wantMinutes {
			t.Errorf("%s: RemainingMinutes = %d, want %d", tt.name, d.RemainingMinutes, tt.wantMinutes)
		}
		if st.Level != tt.wantLevel {
			t.Errorf("%s: Level = %d, want %d", tt.name, st.Level, tt.wantLevel)
		}
	}
}

func TestLadder_TryConsume_LevelCapped(t *testing.T) {
	t.Parallel()
	l := mustLadder(t)
	now := time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC)

	st := CooldownState{}
	for i := 0; i < 8; i++ {
		d := l.TryConsume(&st, now)
		if !d.Allowed {
			t.Fatalf("action %d denied", i)
		}
		now = now.Add(2 * time.Hour)
		if now.Day() != 15 {
			break
		}
	}
	if st.Level != len(DefaultLadder)-1 {
		t.Errorf("Level = %d, want %d", st.Level, len(DefaultLadder)-1)
	}
}

func TestLadder_TryConsume_DayRolloverResets(t *testing.T) {
	t.Parallel()
	l := mustLadder(t)

	st := CooldownState{
		LastAction: time.Date(2024, 1, 15, 23, 59, 30, 0, time.UTC),
		Level:      4,
	}
	// The day reset drops the step to 60s, and 61s have elapsed.
	d := l.TryConsume(&st, time.Date(2024, 1, 16, 0, 0, 31, 0, time.UTC))
	if !d.Allowed {
		t.Fatalf("denied after day rollover, remaining %d", d.RemainingMinutes)
	}
	if st.Level != 1 {
		t.Errorf("Level = %d, want 1", st.Level)
	}
}

func TestLadder_TryConsume_DayRolloverStillInsideFirstStep(t *testing.T) {
	t.Parallel()
	l := mustLadder(t)

	st := CooldownState{
		LastAction: time.Date(2024, 1, 15, 23, 59, 50, 0, time.UTC),
		Level:      3,
	}
	d := l.TryConsume(&st, time.Date(2024, 1, 16, 0, 0, 10, 0, time.UTC))
	if d.Allowed {
		t.Fatal("allowed 20s after last action, want denied")
	}
	if st.Level != 0 {
		t.Errorf("Level = %d after rollover, want 0", st.Level)
	}
	if d.RemainingMinutes != 1 {
		t.Errorf("RemainingMinutes = %d, want 1", d.RemainingMinutes)
	}
}

func TestLadder_TryConsume_RemainingRoundsUp(t *testing.T) {
	t.Parallel()
	l := mustLadder(t)
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	st := CooldownState{LastAction: start, Level: 4}
	d := l.TryConsume(&st, start.Add(10*time.Second))
	if d.Allowed {
		t.Fatal("allowed inside the hour step")
	}
	// 3590s remain, which is 59.8 minutes.
	if d.RemainingMinutes != 60 {
		t.Errorf("RemainingMinutes = %d, want 60", d.RemainingMinutes)
	}
	if !errors.Is(d.Err(), ErrRateLimited) {
		t.Errorf("Err() = %v, want ErrRateLimited", d.Err())
	}
}

func TestNewLadder_RejectsNonPositive(t *testing.T) {
	t.Parallel()
	if _, err := NewLadder([]time.Duration{time.Minute, 0}); err == nil {
		t.Error("NewLadder() expected error for zero step")
	}
}

func TestNewLadderFromSeconds(t *testing.T) {
	t.Parallel()
	l, err := NewLadderFromSeconds([]int{5, 10})
	if err != nil {
		t.Fatalf("NewLadderFromSeconds() error = %v", err)
	}
	steps := l.Steps()
	if len(steps) != 2 || steps[0] != 5*time.Second || steps[1] != 10*time.Second {
		t.Errorf("Steps() = %v, want [5s 10s]", steps)
	}
}
