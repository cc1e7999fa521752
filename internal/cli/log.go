package cli

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slotfit/pkg/solver"
)

// newLogger writes leveled, timestamped lines ("14:32:01.45 INFO ...") to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch starts timing and returns a func reporting the elapsed time,
// rounded to milliseconds.
func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration { return time.Since(start).Round(time.Millisecond) }
}

const searchProgressInterval = time.Second

// throttle lets one event through per interval.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func (t *throttle) allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// searchProgress forwards every solver progress call to onUpdate and logs a
// debug line at most once per interval.
func searchProgress(l *log.Logger, interval time.Duration, onUpdate solver.ProgressFunc) solver.ProgressFunc {
	th := &throttle{interval: interval}
	return func(expanded, frontier int, best float64) {
		if onUpdate != nil {
			onUpdate(expanded, frontier, best)
		}
		if th.allow(time.Now()) {
			l.Debug("searching", "expanded", expanded, "frontier", frontier, "best", best)
		}
	}
}
