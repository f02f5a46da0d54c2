package history

import (
	"sync"
	"time"

	"github.com/itohio/aquanode/pkg/sample"
)

// Trend is the rate of change of each parameter, in units per minute.
type Trend struct {
	Temperature float64 `json:"temperature"`
	PH          float64 `json:"ph"`
	Turbidity   float64 `json:"turbidity"`
	TDS         float64 `json:"tds"`
}

// Window keeps the readings of the last window duration, ordered oldest
// first. Removal is based on timestamp, not count.
type Window struct {
	duration time.Duration

	mu       sync.RWMutex
	readings []sample.Reading

	callbacks []func(readings []sample.Reading)
	cbMu      sync.RWMutex
}

// New creates a window covering the given duration.
func New(duration time.Duration) *Window {
	return &Window{
		duration: duration,
		readings: make([]sample.Reading, 0),
	}
}

// Add appends a reading and evicts readings older than the window relative
// to it, then notifies callbacks.
func (w *Window) Add(r sample.Reading) {
	w.mu.Lock()
	w.readings = append(w.readings, r)

	cutoff := r.Timestamp.Add(-w.duration)
	idx := 0
	for idx < len(w.readings) && !w.readings[idx].Timestamp.After(cutoff) {
		idx++
	}
	if idx > 0 {
		w.readings = append(w.readings[:0], w.readings[idx:]...)
	}
	w.mu.Unlock()

	w.notifyCallbacks()
}

// Readings returns a copy of the buffered readings, oldest first.
func (w *Window) Readings() []sample.Reading {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]sample.Reading, len(w.readings))
	copy(out, w.readings)
	return out
}

// Latest returns the newest reading.
func (w *Window) Latest() (sample.Reading, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.readings) == 0 {
		return sample.Reading{}, false
	}
	return w.readings[len(w.readings)-1], true
}

// Len returns the number of buffered readings.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.readings)
}

// Trend returns the change between the oldest and newest reading per minute.
// Temperature uses only readings with a valid temperature.
func (w *Window) Trend() (Trend, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.readings) < 2 {
		return Trend{}, false
	}
	first, last := w.readings[0], w.readings[len(w.readings)-1]
	minutes := last.Timestamp.Sub(first.Timestamp).Minutes()
	if minutes <= 0 {
		return Trend{}, false
	}

	t := Trend{
		PH:        (last.PH - first.PH) / minutes,
		Turbidity: (last.Turbidity - first.Turbidity) / minutes,
		TDS:       (last.TDS - first.TDS) / minutes,
	}

	var firstT, lastT *sample.Reading
	for i := range w.readings {
		if w.readings[i].TemperatureOK {
			if firstT == nil {
				firstT = &w.readings[i]
			}
			lastT = &w.readings[i]
		}
	}
	if firstT != nil && lastT != firstT {
		if m := lastT.Timestamp.Sub(firstT.Timestamp).Minutes(); m > 0 {
			t.Temperature = (lastT.Temperature - firstT.Temperature) / m
		}
	}

	return t, true
}

// OnUpdate registers a callback invoked after every Add with a copy of the
// buffered readings.
func (w *Window) OnUpdate(callback func(readings []sample.Reading)) {
	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// notifyCallbacks copies data under the read lock, then calls callbacks
// without holding any lock.
func (w *Window) notifyCallbacks() {
	w.cbMu.RLock()
	if len(w.callbacks) == 0 {
		w.cbMu.RUnlock()
		return
	}
	callbacks := make([]func([]sample.Reading), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.cbMu.RUnlock()

	readings := w.Readings()
	for _, cb := range callbacks {
		cb(readings)
	}
}
