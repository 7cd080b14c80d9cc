package logic

// DefaultWindow is the number of raw samples the notifier averages.
const DefaultWindow = 5

// MovingAverage is a fixed-capacity ring of the most recent samples.
// Not safe for concurrent use; caller must synchronize.
type MovingAverage struct {
	buf    []Distance
	head   int // next write position
	count  int
	filled bool // true once the ring has wrapped at least once
}

// NewMovingAverage creates a filter over the last window samples.
func NewMovingAverage(window int) *MovingAverage {
	if window <= 0 {
		window = 1
	}
	return &MovingAverage{buf: make([]Distance, window)}
}

// Push overwrites the oldest slot with v.
func (m *MovingAverage) Push(v Distance) {
	m.buf[m.head] = v
	m.head = (m.head + 1) % len(m.buf)
	if m.head == 0 {
		m.filled = true
	}
	if m.count < len(m.buf) {
		m.count++
	}
}

// Mean returns the average of the samples currently held, or 0 when empty.
func (m *MovingAverage) Mean() Distance {
	if m.count == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < m.count; i++ {
		sum += float32(m.buf[i])
	}
	return Distance(sum / float32(m.count))
}

// Filter pushes v and returns the new mean.
func (m *MovingAverage) Filter(v Distance) Distance {
	m.Push(v)
	return m.Mean()
}

// Len returns min(samples pushed, window).
func (m *MovingAverage) Len() int {
	return m.count
}

// Filled reports whether window samples have been written at least once.
func (m *MovingAverage) Filled() bool {
	return m.filled
}

// Window returns the filter capacity.
func (m *MovingAverage) Window() int {
	return len(m.buf)
}

// Reset empties the filter.
func (m *MovingAverage) Reset() {
	for i := range m.buf {
		m.buf[i] = 0
	}
	m.head = 0
	m.count = 0
	m.filled = false
}
