package schedule

import "github.com/roach88/rewards/internal/host"

// Slot holds at most one pending timer. The zero Slot is empty.
//
// Emptiness is tracked explicitly rather than with a reserved timer id, so
// any id a host hands out is a valid occupant.
type Slot struct {
	id    host.TimerID
	armed bool
}

// Arm records id as the pending timer.
func (s *Slot) Arm(id host.TimerID) {
	s.id = id
	s.armed = true
}

// Pending reports whether a timer is outstanding.
func (s *Slot) Pending() bool {
	return s.armed
}

// Fire empties the slot if id is its pending timer and reports whether it
// was.
func (s *Slot) Fire(id host.TimerID) bool {
	if !s.armed || s.id != id {
		return false
	}
	*s = Slot{}
	return true
}

// ID returns the pending timer id, if any.
func (s *Slot) ID() (host.TimerID, bool) {
	return s.id, s.armed
}
