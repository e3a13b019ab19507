package streamproxy

import "context"

// concurrencyLimiter bounds the number of upstream stream fetches in
// flight at once, protecting a catalog server that would otherwise see
// one upstream connection per renderer with no ceiling.
type concurrencyLimiter struct {
	sem chan struct{} // acts as a semaphore
}

func newConcurrencyLimiter(maxConcurrent int) *concurrencyLimiter {
	return &concurrencyLimiter{sem: make(chan struct{}, maxConcurrent)}
}

// acquire blocks until a slot is free or ctx is cancelled.
func (l *concurrencyLimiter) acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case l.sem <- struct{}{}:
		return nil
	}
}

func (l *concurrencyLimiter) release() {
	<-l.sem
}
