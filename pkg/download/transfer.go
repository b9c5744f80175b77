package download

import (
	"path/filepath"
	"sync/atomic"
)

// Status is the lifecycle state of a transfer. Transitions only move forward:
// Pending -> InProgress -> Completed or Failed.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SizeUnknown is the BytesExpected sentinel for resources whose length the
// server did not declare. It matches the http.Response.ContentLength
// convention.
const SizeUnknown int64 = -1

// TransferState describes one file's download: source, destination and byte
// progress. It is created by the pool when a URL is dequeued and owned by a
// single task until it reaches a terminal status, after which it is
// read-only.
type TransferState struct {
	// ID is the position of the URL in the input list, used to correlate
	// progress and completion events.
	ID int

	// URL is the source, immutable.
	URL string

	// Dest is the destination path, immutable once assigned.
	Dest string

	// BytesExpected is the total size declared by the server, or
	// SizeUnknown.
	BytesExpected int64

	// bytesDownloaded is mutated only by the fetcher while writing, and
	// read concurrently by the progress reporter.
	bytesDownloaded atomic.Int64

	// Attempt counts retries, mutated only by the task between attempts.
	Attempt int

	// Status is the lifecycle state, mutated only by the owning task.
	Status Status

	// FailureKind and FailureMessage record the terminal failure when
	// Status is StatusFailed.
	FailureKind    FailureKind
	FailureMessage string
}

// Basename returns the destination file name.
func (t *TransferState) Basename() string {
	return filepath.Base(t.Dest)
}

// BytesDownloaded returns the current byte progress.
func (t *TransferState) BytesDownloaded() int64 {
	return t.bytesDownloaded.Load()
}

// addBytes advances the monotonically non-decreasing byte counter.
func (t *TransferState) addBytes(n int64) {
	t.bytesDownloaded.Add(n)
}

// SetBytesDownloaded resets the counter to an absolute value. Used when a
// transfer resumes at an offset, or restarts from zero after a range
// mismatch.
func (t *TransferState) SetBytesDownloaded(n int64) {
	t.bytesDownloaded.Store(n)
}

// Terminal reports whether the transfer reached a final status.
func (t *TransferState) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}
