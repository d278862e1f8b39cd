package engine

import (
	"sync"
	"time"
)

// debouncer coalesces analysis requests: each new request cancels the
// pending single-shot timer and re-arms it, so a burst of calls inside the
// delay runs one analysis for the last requested key. Every caller from
// the burst receives that one result.
type debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	key     rune
	waiters []chan *WeaknessResult
}

func newDebouncer() *debouncer {
	return &debouncer{}
}

// AnalyzeDebounced schedules an Analyze for key after delay, collapsing
// with any pending request. The returned channel is buffered and delivers
// exactly one result.
func (e *Engine) AnalyzeDebounced(key rune, delay time.Duration) <-chan *WeaknessResult {
	ch := make(chan *WeaknessResult, 1)

	d := e.deb
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.key = key
	d.waiters = append(d.waiters, ch)
	d.timer = time.AfterFunc(delay, func() { e.fireDebounced() })
	d.mu.Unlock()

	return ch
}

func (e *Engine) fireDebounced() {
	d := e.deb
	d.mu.Lock()
	key := d.key
	waiters := d.waiters
	d.waiters = nil
	d.timer = nil
	d.mu.Unlock()

	res := e.Analyze(key)
	for _, ch := range waiters {
		ch <- res
	}
}

// CancelPendingAnalysis drops any scheduled debounced analysis. Waiters
// never receive a result; callers using select with a timeout or context
// observe the cancellation.
func (e *Engine) CancelPendingAnalysis() {
	d := e.deb
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.waiters = nil
	d.mu.Unlock()
}
