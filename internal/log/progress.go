package log

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ProgressIndicator renders console feedback for long-running sweeps
// such as calibration runs. Safe for concurrent Increment calls from a
// worker pool.
type ProgressIndicator struct {
	mu         sync.Mutex
	name       string
	total      int
	current    int
	startTime  time.Time
	lastRender time.Time
	interval   time.Duration
	quiet      bool
}

// NewProgressIndicator creates an indicator for a known item count.
// quiet suppresses bar rendering (non-TTY output) while still logging
// the completion line.
func NewProgressIndicator(name string, total int, quiet bool) *ProgressIndicator {
	return &ProgressIndicator{
		name:      name,
		total:     total,
		startTime: time.Now(),
		interval:  200 * time.Millisecond,
		quiet:     quiet,
	}
}

// Increment advances progress by one step.
func (pi *ProgressIndicator) Increment() {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.current++
	pi.render(false)
}

// Update sets the current progress value directly.
func (pi *ProgressIndicator) Update(current int) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.current = current
	pi.render(false)
}

// Finish prints the completion line and logs run duration.
func (pi *ProgressIndicator) Finish() {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.current = pi.total
	pi.render(true)
	duration := time.Since(pi.startTime).Round(time.Millisecond)
	if !pi.quiet {
		fmt.Printf("\r%s done (%d items, %v)\n", pi.name, pi.total, duration)
	}
	log.Debug().Str("task", pi.name).Int("items", pi.total).Dur("elapsed", duration).Msg("progress finished")
}

// Fail prints a failure line with the reason.
func (pi *ProgressIndicator) Fail(reason string) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if !pi.quiet {
		fmt.Printf("\r%s failed: %s\n", pi.name, reason)
	}
	log.Warn().Str("task", pi.name).Str("reason", reason).Msg("progress failed")
}

// render throttles bar redraws to the refresh interval.
func (pi *ProgressIndicator) render(force bool) {
	if pi.quiet {
		return
	}
	now := time.Now()
	if !force && now.Sub(pi.lastRender) < pi.interval {
		return
	}
	pi.lastRender = now

	pct := 0.0
	if pi.total > 0 {
		pct = float64(pi.current) / float64(pi.total)
	}
	filled := int(pct * 24)
	bar := strings.Repeat("=", filled) + strings.Repeat("-", 24-filled)
	fmt.Printf("\r%s [%s] %d/%d (%.1f%%)%s", pi.name, bar, pi.current, pi.total, pct*100, pi.eta(pct))
}

// eta estimates remaining time from throughput so far.
func (pi *ProgressIndicator) eta(pct float64) string {
	if pct <= 0 || pct >= 1 {
		return ""
	}
	elapsed := time.Since(pi.startTime)
	remaining := time.Duration(float64(elapsed)/pct) - elapsed
	return fmt.Sprintf(" eta %v", remaining.Round(time.Second))
}
