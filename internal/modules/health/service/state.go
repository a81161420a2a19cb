package service

import (
	"sync/atomic"
	"time"
)

// State is the liveness record the scan loop reports into.
type State struct {
	ready      atomic.Bool
	startedAt  time.Time
	staleAfter time.Duration

	lastCycleUnix atomic.Int64 // unix seconds
	cycles        atomic.Int64
}

func NewState(staleAfter time.Duration) *State {
	return &State{startedAt: time.Now(), staleAfter: staleAfter}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) TouchCycle(t time.Time) {
	s.lastCycleUnix.Store(t.Unix())
	s.cycles.Add(1)
}

func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Cycles() int64 { return s.cycles.Load() }

// Stale reports a loop that has not finished a cycle within staleAfter.
// Before the first cycle the start time is the reference.
func (s *State) Stale(now time.Time) bool {
	if s.staleAfter <= 0 {
		return false
	}
	ref := s.LastCycle()
	if ref.IsZero() {
		ref = s.startedAt
	}
	return now.Sub(ref) > s.staleAfter
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
