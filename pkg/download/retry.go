package download

import "time"

// RetryDecision is the outcome of consulting the retry policy after a
// failure.
type RetryDecision struct {
	ShouldRetry bool
	Delay       time.Duration
}

// RetryPolicy decides whether a failed attempt may be retried and how long to
// wait first. The delay is a fixed configured interval between attempts, not
// an exponential backoff.
type RetryPolicy struct {
	// RetryCount is the maximum number of retries per transfer.
	RetryCount int

	// RetryDelay is the wait before each retry.
	RetryDelay time.Duration
}

// Decide is a pure function of the attempt count and failure kind. Applying
// the delay is the caller's responsibility.
func (p RetryPolicy) Decide(attempt int, kind FailureKind) RetryDecision {
	if !kind.Retryable() {
		return RetryDecision{}
	}
	if attempt >= p.RetryCount {
		return RetryDecision{}
	}
	return RetryDecision{ShouldRetry: true, Delay: p.RetryDelay}
}
