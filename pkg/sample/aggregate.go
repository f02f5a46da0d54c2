package sample

import (
	"math"
	"sync"
	"time"
)

// Stats accumulates one parameter over a send window.
type Stats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"-"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Add folds a value into the statistics.
func (s *Stats) Add(v float64) {
	if s.Count == 0 {
		s.Min, s.Max = v, v
	} else {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Sum += v
	s.Count++
}

// Merge folds other into s.
func (s *Stats) Merge(other Stats) {
	if other.Count == 0 {
		return
	}
	if s.Count == 0 {
		*s = other
		return
	}
	s.Min = math.Min(s.Min, other.Min)
	s.Max = math.Max(s.Max, other.Max)
	s.Sum += other.Sum
	s.Count += other.Count
}

// Mean returns the average, or 0 when empty.
func (s Stats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Report summarises the readings collected between two sends.
type Report struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Samples     int       `json:"samples"`
	Temperature Stats     `json:"temperature"` // only readings with a valid temperature
	PH          Stats     `json:"ph"`
	Turbidity   Stats     `json:"turbidity"`
	TDS         Stats     `json:"tds"`
}

// Empty reports whether the report holds no readings.
func (r Report) Empty() bool {
	return r.Samples == 0
}

// merge folds other into r, widening the time span.
func (r *Report) merge(other Report) {
	if other.Empty() {
		return
	}
	if r.Empty() {
		*r = other
		return
	}
	if other.Start.Before(r.Start) {
		r.Start = other.Start
	}
	if other.End.After(r.End) {
		r.End = other.End
	}
	r.Samples += other.Samples
	r.Temperature.Merge(other.Temperature)
	r.PH.Merge(other.PH)
	r.Turbidity.Merge(other.Turbidity)
	r.TDS.Merge(other.TDS)
}

// Aggregator collects readings between sends. It is safe for concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	current Report
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add folds a reading into the current window.
func (a *Aggregator) Add(r Reading) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c := &a.current
	if c.Samples == 0 || r.Timestamp.Before(c.Start) {
		c.Start = r.Timestamp
	}
	if r.Timestamp.After(c.End) {
		c.End = r.Timestamp
	}
	c.Samples++
	if r.TemperatureOK {
		c.Temperature.Add(r.Temperature)
	}
	c.PH.Add(r.PH)
	c.Turbidity.Add(r.Turbidity)
	c.TDS.Add(r.TDS)
}

// Flush returns the current window and starts a new one. The boolean is
// false when no readings were collected.
func (a *Aggregator) Flush() (Report, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.current
	a.current = Report{}
	return r, !r.Empty()
}

// Restore puts an unsent report back so it is merged into the next window.
func (a *Aggregator) Restore(r Report) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current.merge(r)
}

// Pending returns the number of readings in the current window.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current.Samples
}
