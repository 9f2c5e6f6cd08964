package mocks

import (
	"sync"

	"github.com/mcoot/seabattle/internal/dependencies/random"
)

// MockRandom replays queued Intn results. Each queued value is reduced
// modulo n so tests can script draws without knowing the bound.
type MockRandom struct {
	mu      sync.Mutex
	queue   []int
	calls   []int
	exhaust int // returned once the queue is empty
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom returns a MockRandom with an empty queue
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// QueueIntn appends values to the result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, values...)
}

// WhenEmpty sets the value returned after the queue drains
func (r *MockRandom) WhenEmpty(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exhaust = v
}

// Intn pops the next queued value
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, n)
	if n <= 0 {
		return 0
	}
	v := r.exhaust
	if len(r.queue) > 0 {
		v = r.queue[0]
		r.queue = r.queue[1:]
	}
	return v % n
}

// Calls returns the bounds passed to Intn so far
func (r *MockRandom) Calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}
