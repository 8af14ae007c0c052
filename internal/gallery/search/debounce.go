package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before typed input becomes a search.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer emits the latest pushed value once input has been quiet for quantum.
//
// Every Push restarts the window. Cancel drops the pending value,
// Stop drops it and ignores all later pushes.
type Debouncer struct {
	mu      sync.Mutex
	quantum time.Duration
	emit    func(value string)
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// NewDebouncer creates a debouncer calling emit on its own goroutine.
func NewDebouncer(quantum time.Duration, emit func(value string)) *Debouncer {
	if quantum <= 0 {
		quantum = DefaultDebounce
	}
	return &Debouncer{quantum: quantum, emit: emit}
}

// Push restarts the quiet window with value as the candidate.
func (d *Debouncer) Push(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.stopTimerLocked()
	seq := d.seq
	d.timer = time.AfterFunc(d.quantum, func() {
		d.fire(seq, value)
	})
}

// fire runs on the timer goroutine. A timer that already fired when it was
// superseded sees a newer seq and stays silent.
func (d *Debouncer) fire(seq uint64, value string) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.seq++
	d.mu.Unlock()

	d.emit(value)
}

// Pending reports whether a value is waiting for its window to close.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops the pending value, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.stopTimerLocked()
	d.mu.Unlock()
}

// Stop cancels the pending value and disables the debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopTimerLocked()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
