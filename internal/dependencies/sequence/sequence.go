package sequence

import "sync/atomic"

// Sequence issues monotonically increasing ids starting at 1.
// Safe for concurrent use.
type Sequence struct {
	last atomic.Int64
}

// New returns a Sequence whose first id is 1
func New() *Sequence {
	return &Sequence{}
}

// Next returns the next id
func (s *Sequence) Next() int {
	return int(s.last.Add(1))
}

// ResumeAfter moves the sequence so the next id is greater than floor.
// It never moves the sequence backwards.
func (s *Sequence) ResumeAfter(floor int) {
	for {
		cur := s.last.Load()
		if int64(floor) <= cur || s.last.CompareAndSwap(cur, int64(floor)) {
			return
		}
	}
}
