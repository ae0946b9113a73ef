package bundle

import (
	"fmt"
	"time"
)

// indeterminateETA is reported when no estimate is possible: unknown
// total size, no throughput yet, or a phase that already overran its
// advisory size.
const indeterminateETA = "00:00:00"

// rateTracker derives average throughput and remaining-time estimates
// from cumulative byte counts for one pipeline phase. The total is
// passed per snapshot because it may only become known once the phase
// is underway (e.g. from a Content-Length header).
type rateTracker struct {
	start time.Time
}

func newRateTracker() *rateTracker {
	return &rateTracker{start: time.Now()}
}

// snapshot converts a cumulative byte count into a Progress value.
// A total <= 0 means unknown; percentage stays 0 and the ETA is
// indeterminate.
func (r *rateTracker) snapshot(done, total int64) Progress {
	elapsed := time.Since(r.start).Seconds()

	var speed float64
	if elapsed > 0 {
		speed = float64(done) / elapsed
	}

	p := Progress{
		ETA:      indeterminateETA,
		AvgSpeed: int64(speed),
	}

	if total <= 0 {
		return p
	}

	p.Percentage = float64(done) / float64(total) * 100
	if p.Percentage > 100 {
		p.Percentage = 100
	}

	if speed > 0 && done <= total {
		remaining := float64(total-done) / speed
		p.ETA = formatETA(time.Duration(remaining * float64(time.Second)))
	}

	return p
}

// formatETA renders a duration as HH:MM:SS. Negative durations render
// as the indeterminate value.
func formatETA(d time.Duration) string {
	if d < 0 {
		return indeterminateETA
	}

	secs := int64(d.Round(time.Second).Seconds())
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
