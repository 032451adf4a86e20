// FILE: lixenwraith/logpipe/queue.go
package logpipe

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// batch is an ordered run of entries collected between two worker wake-ups.
// done is closed once every entry has been offered to every writer.
type batch struct {
	entries []Entry
	done    chan struct{}
}

func newBatch(capacity int) *batch {
	return &batch{
		entries: make([]Entry, 0, capacity),
		done:    make(chan struct{}),
	}
}

// queue decouples producers from queued writers. Producers append to the live
// batch; a single worker goroutine swaps it for an empty one and delivers the
// swapped batch outside of any lock.
type queue struct {
	batchMu   sync.Mutex
	live      *batch
	startSize int
	closed    bool

	writersMu sync.Mutex
	writers   []Writer

	hasWork      chan struct{} // capacity 1, a pending signal coalesces further raises
	shutdown     chan struct{} // closed once
	ack          chan struct{} // closed by the worker on exit
	shutdownOnce sync.Once

	system  func(Entry)
	state   *State
	metrics *Metrics
}

// newQueue creates the queue and starts its worker.
// system receives relabeled entries the queue could not deliver.
func newQueue(startSize int, system func(Entry), state *State, metrics *Metrics) *queue {
	if startSize <= 0 {
		startSize = int(DefaultConfig().QueueStartSize)
	}
	q := &queue{
		live:      newBatch(startSize),
		startSize: startSize,
		hasWork:   make(chan struct{}, 1),
		shutdown:  make(chan struct{}),
		ack:       make(chan struct{}),
		system:    system,
		state:     state,
		metrics:   metrics,
	}
	go q.run()
	return q
}

// Enqueue appends e to the live batch and wakes the worker.
// Returns false once shutdown has been requested.
func (q *queue) Enqueue(e Entry) bool {
	q.batchMu.Lock()
	if q.closed {
		q.batchMu.Unlock()
		return false
	}
	q.live.entries = append(q.live.entries, e)
	q.batchMu.Unlock()

	q.state.EntriesEnqueued.Add(1)
	q.signal()
	return true
}

// signal raises hasWork without blocking
func (q *queue) signal() {
	select {
	case q.hasWork <- struct{}{}:
	default:
	}
}

// Pending returns the number of entries waiting in the live batch.
func (q *queue) Pending() int {
	q.batchMu.Lock()
	defer q.batchMu.Unlock()
	return len(q.live.entries)
}

// Register adds w to the delivery set. A writer already present is ignored.
func (q *queue) Register(w Writer) bool {
	q.writersMu.Lock()
	defer q.writersMu.Unlock()
	if slices.Contains(q.writers, w) {
		return false
	}
	q.writers = append(q.writers, w)
	return true
}

// Unregister removes w from the delivery set.
func (q *queue) Unregister(w Writer) bool {
	q.writersMu.Lock()
	defer q.writersMu.Unlock()
	i := slices.Index(q.writers, w)
	if i < 0 {
		return false
	}
	q.writers = slices.Delete(q.writers, i, i+1)
	return true
}

// Writers returns a copy of the delivery set in registration order.
func (q *queue) Writers() []Writer {
	q.writersMu.Lock()
	defer q.writersMu.Unlock()
	return slices.Clone(q.writers)
}

// WriterCount returns the size of the delivery set.
func (q *queue) WriterCount() int {
	q.writersMu.Lock()
	defer q.writersMu.Unlock()
	return len(q.writers)
}

// run is the worker loop. Shutdown wins over pending work.
func (q *queue) run() {
	defer close(q.ack)

	for {
		select {
		case <-q.shutdown:
			return
		case <-q.hasWork:
		}

		select {
		case <-q.shutdown:
			return
		default:
		}

		q.deliver(q.swap())
	}
}

// swap installs a fresh live batch and returns the previous one.
func (q *queue) swap() *batch {
	q.batchMu.Lock()
	b := q.live
	q.live = newBatch(q.startSize)
	q.batchMu.Unlock()
	return b
}

// deliver offers each entry of b to every registered writer, entry by entry.
func (q *queue) deliver(b *batch) {
	defer close(b.done)
	if len(b.entries) == 0 {
		return
	}

	writers := q.Writers()
	q.metrics.observeBatch(len(b.entries))
	q.state.BatchesDelivered.Add(1)

	for _, e := range b.entries {
		select {
		case <-q.shutdown:
			return
		default:
		}

		if len(writers) == 0 {
			q.system(e.Relabel(noSubscriberPrefix))
			continue
		}

		for _, w := range writers {
			if err := safeWrite(w, e); err != nil {
				name := writerName(w)
				q.state.WriterFailures.Add(1)
				q.metrics.writerFailed(name)
				q.system(e.Relabel(fmt.Sprintf(writerFailureTemplate, name, err)))
			}
		}
		q.state.EntriesDelivered.Add(1)
	}
}

// Exit flushes what it can, stops the worker and closes every registered writer.
// Each phase waits at most timeout. Returns whether the worker acknowledged.
func (q *queue) Exit(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultExitTimeout
	}

	q.batchMu.Lock()
	target := q.live
	q.batchMu.Unlock()

	if q.WriterCount() > 0 {
		q.drain(target, timeout)
	}

	q.requestShutdown()

	acked := false
	ackTimer := time.NewTimer(timeout)
	select {
	case <-q.ack:
		acked = true
	case <-ackTimer.C:
	}
	ackTimer.Stop()

	// A worker stuck in a writer keeps running until that call returns, then
	// observes shutdown and exits. Closing such a writer may block as well.
	q.writersMu.Lock()
	writers := q.writers
	q.writers = nil
	q.writersMu.Unlock()

	closeWriters(writers, timeout, "queue", q.system)
	return acked
}

// closeWriters closes writers concurrently and waits at most timeout for them.
// A writer still closing after timeout is reported and left to finish alone.
func closeWriters(writers []Writer, timeout time.Duration, className string, report func(Entry)) {
	if len(writers) == 0 {
		return
	}

	type closeResult struct {
		index int
		err   error
	}
	results := make(chan closeResult, len(writers))
	for i, w := range writers {
		go func() {
			results <- closeResult{index: i, err: safeClose(w)}
		}()
	}

	closed := make([]bool, len(writers))
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for remaining := len(writers); remaining > 0; remaining-- {
		select {
		case r := <-results:
			closed[r.index] = true
			if r.err != nil {
				report(NewEntry(SeveritySystemError, className, "Exit",
					fmt.Sprintf("failed to close writer '%s'", writerName(writers[r.index])), r.err))
			}
		case <-timer.C:
			for i, done := range closed {
				if !done {
					report(NewEntry(SeveritySystemWarning, className, "Exit",
						fmt.Sprintf("writer '%s' did not close within %v", writerName(writers[i]), timeout), nil))
				}
			}
			return
		}
	}
}

// drain nudges the worker until target has been delivered or timeout elapses.
func (q *queue) drain(target *batch, timeout time.Duration) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(minWaitTime)
	defer ticker.Stop()

	q.signal()
	for {
		select {
		case <-target.done:
			return
		case <-q.ack:
			return
		case <-deadline.C:
			return
		case <-ticker.C:
			q.signal()
		}
	}
}

func (q *queue) requestShutdown() {
	q.shutdownOnce.Do(func() {
		q.batchMu.Lock()
		q.closed = true
		q.batchMu.Unlock()
		close(q.shutdown)
	})
}

// Done is closed when the worker has exited.
func (q *queue) Done() <-chan struct{} {
	return q.ack
}

// safeWrite calls w.Write, turning a panic into an error.
func safeWrite(w Writer, e Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return w.Write(e)
}

// safeClose calls w.Close, turning a panic into an error.
func safeClose(w Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return w.Close()
}
