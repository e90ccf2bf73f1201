package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressReporter renders the progress of a long-running push or test run.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
}

// SimpleProgress renders a unicode block progress bar with an
// instances/sec completion rate for long-running fan-out work.
type SimpleProgress struct {
	w        io.Writer
	total    int64
	current  int64
	started  time.Time
	barWidth int
}

// NewProgressReporter returns a SimpleProgress writing to w.
func NewProgressReporter(w io.Writer) *SimpleProgress {
	return &SimpleProgress{w: w, barWidth: 30}
}

func (p *SimpleProgress) Start(total int64) {
	p.total = total
	p.current = 0
	p.started = time.Now()
	p.render()
}

func (p *SimpleProgress) Update(current int64) {
	p.current = current
	p.render()
}

func (p *SimpleProgress) Finish() {
	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

func (p *SimpleProgress) render() {
	if p.total <= 0 {
		return
	}
	frac := float64(p.current) / float64(p.total)
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(p.barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.barWidth-filled)

	elapsed := time.Since(p.started).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed
	}
	fmt.Fprintf(p.w, "\r[%s] %d/%d (%.1f instances/s)", bar, p.current, p.total, rate)
}
