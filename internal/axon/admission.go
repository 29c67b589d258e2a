package axon

import (
	"context"
	"time"
)

// beginForward reserves a queue slot and then the single in-flight slot.
// Forward calls are serialized: the model handle is reused across requests
// and the underlying inference call is not assumed to be reentrant.
// Returns a release func to be deferred.
func (s *Server) beginForward(ctx context.Context) (func(), error) {
	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	// One timer covers both waits: queue slot and forward slot share the
	// same max-wait budget.
	timer := time.NewTimer(s.maxWait)
	defer timer.Stop()
	select {
	case s.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{kind: s.kind}
	}

	// Wait to acquire the single in-flight slot
	acquired := false
	defer func() {
		if !acquired {
			<-s.queueCh
		}
	}()
	select {
	case s.genCh <- struct{}{}:
		acquired = true
		return func() { <-s.genCh; <-s.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{kind: s.kind}
	}
}

// QueueLen reports how many requests are waiting for the forward slot. The
// in-flight request keeps its queue slot until release, so it is excluded.
func (s *Server) QueueLen() int {
	n := len(s.queueCh) - len(s.genCh)
	if n < 0 {
		return 0
	}
	return n
}

// Inflight reports how many forwards are running right now (0 or 1).
func (s *Server) Inflight() int { return len(s.genCh) }
