package generator

import "sync"

// ProgressTracker aggregates per-design progress across batch workers.
// All methods are safe for concurrent use.
type ProgressTracker struct {
	mu       sync.Mutex
	total    int
	progress map[string]int
}

// NewProgressTracker creates a tracker expecting total designs. Designs it
// has not heard from yet count as 0%.
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:    total,
		progress: make(map[string]int, total),
	}
}

// Update records the latest progress for one design id.
func (t *ProgressTracker) Update(id string, progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress[id] = progress
}

// Overall returns the average progress over all expected designs, 0-100.
func (t *ProgressTracker) Overall() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total == 0 {
		return 0
	}
	sum := 0
	for _, p := range t.progress {
		sum += p
	}
	return sum / t.total
}

// Completed returns how many designs have reached 100%.
func (t *ProgressTracker) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.progress {
		if p >= 100 {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the per-design progress map.
func (t *ProgressTracker) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.progress))
	for id, p := range t.progress {
		out[id] = p
	}
	return out
}
