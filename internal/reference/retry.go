package reference

import (
	"math/rand"
	"time"

	"github.com/kafkaorders/pipeline/internal/domain"
)

// retryPolicy is an exponential-backoff-with-jitter retry rule: up to
// maxRetries retries (maxRetries+1 attempts total) with delay
// retryDelayMs*2^(attempt-1) plus uniform jitter in [0, min(1000, base)),
// capped at 60s.
type retryPolicy struct {
	maxRetries   int
	retryDelayMs int64
}

// withRetry runs op, retrying on error per the policy above. Each failed
// attempt is wrapped in a *domain.TransientDataError, since it's eligible
// for retry; on final exhaustion that wrapped error is carried inside an
// *domain.ExhaustedDataError. The BatchFetch* readers treat the latter as
// "this chunk's keys are absent" and continue with the remaining chunks;
// FindOrdersByIds returns it and reads no further chunks.
func withRetry[T any](p retryPolicy, op string, fn func() (T, error)) (T, error) {
	var zero T
	attempt := 0

	for {
		attempt++
		v, err := fn()
		if err == nil {
			return v, nil
		}
		transientErr := &domain.TransientDataError{Op: op, Err: err}

		if attempt > p.maxRetries {
			return zero, &domain.ExhaustedDataError{Op: op, Attempts: attempt, Err: transientErr}
		}

		baseDelay := p.retryDelayMs * (1 << uint(attempt-1))
		jitterCap := baseDelay
		if jitterCap > 1000 {
			jitterCap = 1000
		}
		jitter := int64(0)
		if jitterCap > 0 {
			jitter = rand.Int63n(jitterCap)
		}
		delay := baseDelay + jitter
		if delay > 60_000 {
			delay = 60_000
		}

		time.Sleep(time.Duration(delay) * time.Millisecond)
	}
}
