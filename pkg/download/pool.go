package download

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Request is one entry of the input list: a source URL and the destination
// path derived for it.
type Request struct {
	URL  string
	Dest string
}

// Failure describes one transfer that ended in StatusFailed.
type Failure struct {
	URL     string
	Kind    FailureKind
	Message string
}

// Summary is the aggregate result of a run.
type Summary struct {
	Completed int
	Failed    int
	Failures  []Failure
}

// Pool runs transfers across a fixed set of workers. Each worker executes one
// task to completion before pulling the next URL; input order determines
// dispatch order, completion order does not.
type Pool struct {
	Workers  int
	Planner  *Planner
	Fetcher  *Fetcher
	Retry    RetryPolicy
	Reporter ProgressReporter
	Logger   zerolog.Logger
}

// Run downloads every request and returns the aggregate summary. It blocks
// until all dispatched tasks reach a terminal status. Cancelling ctx aborts
// in-flight transfers promptly and prevents queued requests from being
// dispatched; partial files stay on disk for a future resume.
func (p *Pool) Run(ctx context.Context, requests []Request) (Summary, error) {
	if p.Workers < 1 {
		return Summary{}, fmt.Errorf("invalid worker count %d, must be >= 1", p.Workers)
	}
	reporter := p.Reporter
	if reporter == nil {
		reporter = NoopReporter{}
	}
	if len(requests) == 0 {
		return Summary{}, nil
	}

	var (
		mu      sync.Mutex
		summary Summary
	)

	queue := make(chan *TransferState)
	eg, egCtx := errgroup.WithContext(ctx)

	for i := 0; i < p.Workers; i++ {
		eg.Go(func() error {
			for state := range queue {
				task := &Task{
					Planner:  p.Planner,
					Fetcher:  p.Fetcher,
					Retry:    p.Retry,
					Reporter: reporter,
					Logger:   p.Logger,
				}
				task.Run(egCtx, state)

				mu.Lock()
				switch state.Status {
				case StatusCompleted:
					summary.Completed++
				case StatusFailed:
					summary.Failed++
					summary.Failures = append(summary.Failures, Failure{
						URL:     state.URL,
						Kind:    state.FailureKind,
						Message: state.FailureMessage,
					})
				}
				mu.Unlock()
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer close(queue)
		for i, req := range requests {
			state := &TransferState{
				ID:            i,
				URL:           req.URL,
				Dest:          req.Dest,
				BytesExpected: SizeUnknown,
				Status:        StatusPending,
			}
			select {
			case queue <- state:
			case <-egCtx.Done():
				return nil
			}
		}
		return nil
	})

	_ = eg.Wait()

	event := p.Logger.Info()
	if summary.Failed > 0 {
		event = p.Logger.Error()
	}
	event.
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Msg("Summary")
	for _, f := range summary.Failures {
		p.Logger.Error().
			Str("url", f.URL).
			Str("kind", f.Kind.String()).
			Str("reason", f.Message).
			Msg("Incomplete")
	}

	return summary, nil
}
