package search

import (
	"sync"
	"time"
)

// DefaultDebounce is how long a query must stay unchanged before it is ranked.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delays a callback until its input has been stable for the
// configured interval. Each Submit replaces the pending value and restarts the
// wait, so only the latest query is delivered.
type Debouncer struct {
	delay time.Duration
	fn    func(string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	gen     uint64
	stopped bool
	running sync.WaitGroup
}

// NewDebouncer creates a debouncer that calls fn after delay of quiet.
// A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Submit records the latest query and restarts the quiet period.
func (d *Debouncer) Submit(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = query
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire delivers the pending query unless a newer Submit superseded gen.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	query := d.pending
	d.timer = nil
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	d.fn(query)
}

// Flush delivers the pending query immediately, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.stopped || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	query := d.pending
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	d.fn(query)
}

// Stop cancels any pending callback and waits for one already running to
// return. Later submits are ignored. It must not be called from the callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.running.Wait()
}
