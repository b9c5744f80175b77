package download

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Task drives one transfer through its full lifecycle: plan the resume point,
// fetch, retry on transient failure, and record the terminal status on the
// TransferState it owns.
type Task struct {
	Planner  *Planner
	Fetcher  *Fetcher
	Retry    RetryPolicy
	Reporter ProgressReporter
	Logger   zerolog.Logger
}

// Run executes the transfer. The state is owned exclusively by this task
// until it reaches a terminal status.
func (t *Task) Run(ctx context.Context, state *TransferState) {
	state.Status = StatusInProgress
	t.Logger.Info().Str("url", state.URL).Str("dest", state.Dest).Msg("Starting")
	t.Reporter.TaskStarted(state)

	plan, err := t.Planner.Plan(ctx, state.URL, state.Dest)
	if err != nil {
		// The probe client already retried transient failures, so every
		// planning error is final.
		t.fail(state, classify(err))
		return
	}
	state.BytesExpected = plan.TotalSize

	if plan.AlreadyComplete {
		state.SetBytesDownloaded(plan.TotalSize)
		state.Status = StatusCompleted
		t.Logger.Info().Str("url", state.URL).Str("dest", state.Dest).Msg("Already complete, skipping")
		t.Reporter.TaskFinished(state)
		return
	}

	offset := plan.Offset
	if plan.Truncate {
		offset = 0
	}
	// Set once the server ignores a range request; from then on every
	// attempt restarts from zero so no further Range header is sent.
	rangeBroken := false

	for {
		err := t.attempt(ctx, state, offset)
		if err == nil {
			state.Status = StatusCompleted
			t.applyModTime(state, plan.LastModified)
			t.Logger.Info().
				Str("url", state.URL).
				Str("dest", state.Dest).
				Str("size", humanize.Bytes(uint64(state.BytesDownloaded()))).
				Msg("Complete")
			t.Reporter.TaskFinished(state)
			return
		}

		clsErr := classify(err)

		if ctx.Err() != nil {
			t.fail(state, &Error{Kind: clsErr.Kind, Err: ctx.Err()})
			return
		}

		if clsErr.Kind == KindRangeMismatch {
			// Byte alignment can't be trusted: drop the partial file
			// and start over. This is a restart, not a retry, so the
			// attempt counter is untouched. With offset zero no Range
			// header is sent, so it cannot recur.
			t.Logger.Warn().Str("url", state.URL).Msg("Server ignored range request, restarting from zero")
			rangeBroken = true
			offset = 0
			continue
		}

		decision := t.Retry.Decide(state.Attempt, clsErr.Kind)
		if !decision.ShouldRetry {
			t.fail(state, clsErr)
			return
		}

		t.Logger.Warn().
			Str("url", state.URL).
			Int("attempt", state.Attempt+1).
			Str("kind", clsErr.Kind.String()).
			Err(clsErr.Err).
			Msg("Retrying")

		if !sleepCtx(ctx, decision.Delay) {
			t.fail(state, &Error{Kind: clsErr.Kind, Err: ctx.Err()})
			return
		}
		state.Attempt++

		// Resume from whatever made it to disk, so progress accrues
		// across retries too. Without trustworthy range support the
		// next attempt has to start over.
		if plan.SupportsRange && plan.TotalSize != SizeUnknown && !rangeBroken {
			offset = localSize(state.Dest)
		} else {
			offset = 0
		}
	}
}

// attempt performs one fetch at the given offset. Offset zero truncates any
// partial file; a positive offset appends to it.
func (t *Task) attempt(ctx context.Context, state *TransferState, offset int64) error {
	if err := os.MkdirAll(filepath.Dir(state.Dest), 0o755); err != nil {
		return &Error{Kind: KindFileSystem, Err: err}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset == 0 {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(state.Dest, flags, 0o644)
	if err != nil {
		return &Error{Kind: KindFileSystem, Err: err}
	}
	if offset > 0 {
		if _, err := file.Seek(offset, 0); err != nil {
			file.Close()
			return &Error{Kind: KindFileSystem, Err: err}
		}
	}

	state.SetBytesDownloaded(offset)
	t.Reporter.TaskProgress(state)

	_, err = t.Fetcher.Fetch(ctx, state.URL, offset, file, func(n int64) {
		state.addBytes(n)
		t.Reporter.TaskProgress(state)
	})
	return err
}

func (t *Task) fail(state *TransferState, clsErr *Error) {
	state.Status = StatusFailed
	state.FailureKind = clsErr.Kind
	state.FailureMessage = clsErr.Err.Error()
	t.Logger.Error().
		Str("url", state.URL).
		Int("attempt", state.Attempt+1).
		Str("kind", clsErr.Kind.String()).
		Err(clsErr.Err).
		Msg("Failed")
	t.Reporter.TaskFinished(state)
}

// applyModTime carries the remote Last-Modified onto the finished file.
func (t *Task) applyModTime(state *TransferState, lastModified time.Time) {
	if lastModified.IsZero() {
		return
	}
	if err := os.Chtimes(state.Dest, time.Now(), lastModified); err != nil {
		t.Logger.Warn().Str("dest", state.Dest).Err(err).Msg("Could not set modification time")
	}
}

// localSize returns the current size of the partial file, or zero when it
// does not exist.
func localSize(dest string) int64 {
	info, err := os.Stat(dest)
	if err != nil {
		return 0
	}
	return info.Size()
}

// sleepCtx waits for d, returning false when ctx is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
