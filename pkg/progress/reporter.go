// Package progress renders download progress for humans. It implements the
// engine's ProgressReporter and throttles per-task updates so a fast transfer
// cannot flood the terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/outfleet/bget/pkg/download"
)

// Options configures the reporter.
type Options struct {
	// Output is where progress lines are written. Default: os.Stdout.
	Output io.Writer

	// UpdatesPerSecond bounds how many progress lines are emitted per
	// task per second. Default: 2.
	UpdatesPerSecond float64
}

// Reporter is a rate-bounded console progress sink.
type Reporter struct {
	out io.Writer

	mu       sync.Mutex
	limiters map[int]*rate.Limiter
	perTask  rate.Limit
}

var _ download.ProgressReporter = (*Reporter)(nil)

// NewReporter creates a console reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdatesPerSecond <= 0 {
		opts.UpdatesPerSecond = 2
	}
	return &Reporter{
		out:      opts.Output,
		limiters: make(map[int]*rate.Limiter),
		perTask:  rate.Limit(opts.UpdatesPerSecond),
	}
}

func (r *Reporter) TaskStarted(t *download.TransferState) {
	r.mu.Lock()
	r.limiters[t.ID] = rate.NewLimiter(r.perTask, 1)
	r.mu.Unlock()
	fmt.Fprintf(r.out, "[%d] %s -> %s\n", t.ID, t.URL, t.Dest)
}

func (r *Reporter) TaskProgress(t *download.TransferState) {
	r.mu.Lock()
	limiter, ok := r.limiters[t.ID]
	r.mu.Unlock()
	if ok && !limiter.Allow() {
		return
	}
	fmt.Fprintf(r.out, "[%d] %s %s\n", t.ID, t.Basename(), progressString(t))
}

func (r *Reporter) TaskFinished(t *download.TransferState) {
	r.mu.Lock()
	delete(r.limiters, t.ID)
	r.mu.Unlock()

	switch t.Status {
	case download.StatusCompleted:
		fmt.Fprintf(r.out, "[%d] %s done, %s\n", t.ID, t.Basename(), humanize.Bytes(uint64(t.BytesDownloaded())))
	case download.StatusFailed:
		fmt.Fprintf(r.out, "[%d] %s failed: %s\n", t.ID, t.Basename(), t.FailureMessage)
	}
}

func progressString(t *download.TransferState) string {
	downloaded := humanize.Bytes(uint64(t.BytesDownloaded()))
	if t.BytesExpected == download.SizeUnknown {
		return downloaded
	}
	var percent float64
	if t.BytesExpected > 0 {
		percent = float64(t.BytesDownloaded()) / float64(t.BytesExpected) * 100
	}
	return fmt.Sprintf("%s / %s (%.1f%%)", downloaded, humanize.Bytes(uint64(t.BytesExpected)), percent)
}
