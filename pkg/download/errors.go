package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
)

// FailureKind buckets a download failure for the retry policy and for
// reporting. Transience is a property of the kind, not of the individual
// error.
type FailureKind int

const (
	// KindUnknown is the zero value, treated as non-retryable.
	KindUnknown FailureKind = iota

	// KindTransientNetwork covers connection refusals, DNS failures and
	// timeouts, including mid-stream read timeouts.
	KindTransientNetwork

	// KindServerRejected covers 4xx statuses other than 408 and 429. The
	// URL is bad or access is denied; retrying cannot help.
	KindServerRejected

	// KindServerOverload covers 5xx, 408 and 429 statuses.
	KindServerOverload

	// KindRangeMismatch means a range request was answered with 200 full
	// content. Partial bytes must be discarded and the transfer restarted
	// from zero.
	KindRangeMismatch

	// KindFileSystem covers destination create/open/write failures.
	KindFileSystem
)

func (k FailureKind) String() string {
	switch k {
	case KindTransientNetwork:
		return "TransientNetwork"
	case KindServerRejected:
		return "ServerRejected"
	case KindServerOverload:
		return "ServerOverload"
	case KindRangeMismatch:
		return "RangeMismatch"
	case KindFileSystem:
		return "FileSystem"
	default:
		return "Unknown"
	}
}

// Retryable reports whether failures of this kind may be retried at all.
func (k FailureKind) Retryable() bool {
	return k == KindTransientNetwork || k == KindServerOverload
}

// Error is a classified download failure.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a response status outside the 2xx/206 contract.
type HTTPStatusError struct {
	StatusCode int
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.StatusCode)
}

// ErrRangeMismatch is returned when a server answers a range request with a
// 200 full-content response instead of 206.
var ErrRangeMismatch = errors.New("server ignored range request, replied with full content")

// errReadTimeout marks a body read that the watchdog aborted.
var errReadTimeout = errors.New("read timed out")

// classifyStatus maps an HTTP status code onto a failure kind.
func classifyStatus(statusCode int) FailureKind {
	switch {
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooManyRequests:
		return KindServerOverload
	case statusCode >= 500:
		return KindServerOverload
	case statusCode >= 400:
		return KindServerRejected
	default:
		return KindUnknown
	}
}

// classify wraps err with its failure kind. Already-classified errors pass
// through unchanged.
func classify(err error) *Error {
	var clsErr *Error
	if errors.As(err, &clsErr) {
		return clsErr
	}

	var statusErr HTTPStatusError
	if errors.As(err, &statusErr) {
		return &Error{Kind: classifyStatus(statusErr.StatusCode), Err: err}
	}
	if errors.Is(err, ErrRangeMismatch) {
		return &Error{Kind: KindRangeMismatch, Err: err}
	}
	if errors.Is(err, errReadTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransientNetwork, Err: err}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{Kind: KindTransientNetwork, Err: err}
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return &Error{Kind: KindFileSystem, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTransientNetwork, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindTransientNetwork, Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: KindTransientNetwork, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: KindTransientNetwork, Err: err}
	}

	return &Error{Kind: KindUnknown, Err: err}
}
