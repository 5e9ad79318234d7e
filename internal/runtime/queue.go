package runtime

import (
	"context"
	"sync"
)

// Result is delivered once per submitted call.
type Result struct {
	Receipt *Receipt
	Err     error
}

type pendingCall struct {
	origin Origin
	call   Call
	reply  chan Result // buffered, size 1
}

// callQueue is a thread-safe unbounded FIFO queue of submitted calls.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type callQueue struct {
	mu     sync.Mutex
	calls  []pendingCall
	closed bool
	signal chan struct{} // buffered, size 1
}

func newCallQueue() *callQueue {
	return &callQueue{
		calls:  make([]pendingCall, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a call to the back of the queue.
// Returns false if the queue is closed.
func (q *callQueue) Enqueue(p pendingCall) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.calls = append(q.calls, p)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front call without blocking.
func (q *callQueue) TryDequeue() (pendingCall, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.calls) == 0 {
		return pendingCall{}, false
	}

	p := q.calls[0]
	// Clear the slot so the backing array does not retain the call.
	q.calls[0] = pendingCall{}
	if len(q.calls) == 1 {
		q.calls = q.calls[:0]
	} else {
		q.calls = q.calls[1:]
	}
	return p, true
}

// Wait returns a channel that signals when calls may be available.
// It is closed when the queue is closed.
func (q *callQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *callQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

// Close signals that no more calls will be enqueued.
func (q *callQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Submit enqueues a call for the Run loop and returns the channel its
// Result will be delivered on. Fails with a STOPPED RuntimeError once the
// runtime has been stopped.
func (r *Runtime) Submit(origin Origin, call Call) (<-chan Result, error) {
	p := pendingCall{origin: origin, call: call, reply: make(chan Result, 1)}
	if !r.queue.Enqueue(p) {
		return nil, errStopped
	}
	return p.reply, nil
}

// Run drains the call queue, dispatching one call at a time.
// Blocks until ctx is cancelled or Stop is called and the queue is empty.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// Calls still queued when ctx is cancelled receive ctx's error.
func (r *Runtime) Run(ctx context.Context) error {
	r.log.Info().Msg("runtime starting")

	for {
		if err := ctx.Err(); err != nil {
			r.log.Info().Msg("runtime stopping: context cancelled")
			r.queue.Close()
			r.failPending(err)
			return err
		}

		if p, ok := r.queue.TryDequeue(); ok {
			rc, err := r.Dispatch(ctx, p.origin, p.call)
			p.reply <- Result{Receipt: rc, Err: err}
			continue
		}

		select {
		case <-ctx.Done():
			r.log.Info().Msg("runtime stopping: context cancelled")
			r.queue.Close()
			r.failPending(ctx.Err())
			return ctx.Err()

		case <-r.queue.Wait():
			// The signal channel closes with the queue.
			r.queue.mu.Lock()
			done := r.queue.closed && len(r.queue.calls) == 0
			r.queue.mu.Unlock()
			if done {
				r.log.Info().Msg("runtime stopping: queue closed")
				return nil
			}
		}
	}
}

func (r *Runtime) failPending(err error) {
	for {
		p, ok := r.queue.TryDequeue()
		if !ok {
			return
		}
		p.reply <- Result{Err: err}
	}
}

// Stop closes the call queue. Run returns once already queued calls drain.
func (r *Runtime) Stop() {
	r.queue.Close()
}
