package processor

import "time"

// maxTimingSamples bounds the TimingRing at 50 most recent job durations,
// per spec.md §4.4.
const maxTimingSamples = 50

// TimingRing is a fixed-capacity FIFO of recent job durations, used to
// report avgJobTimeMs and derive etaMs.
type TimingRing struct {
	samples []time.Duration
	next    int
	full    bool
}

// NewTimingRing constructs an empty TimingRing.
func NewTimingRing() *TimingRing {
	return &TimingRing{samples: make([]time.Duration, maxTimingSamples)}
}

// Record appends d, evicting the oldest sample once the ring is full.
func (t *TimingRing) Record(d time.Duration) {
	t.samples[t.next] = d
	t.next = (t.next + 1) % maxTimingSamples
	if t.next == 0 {
		t.full = true
	}
}

// Len reports how many samples are currently held.
func (t *TimingRing) Len() int {
	if t.full {
		return maxTimingSamples
	}
	return t.next
}

// AverageMs returns the arithmetic mean of held samples in milliseconds, and
// false if the ring is empty.
func (t *TimingRing) AverageMs() (float64, bool) {
	n := t.Len()
	if n == 0 {
		return 0, false
	}
	var sum time.Duration
	for i := 0; i < n; i++ {
		sum += t.samples[i]
	}
	return float64(sum.Milliseconds()) / float64(n), true
}
