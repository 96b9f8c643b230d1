package engine

import (
	"sync"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/proxy"
)

// Submission is one intake task: a declared input event for a session,
// together with the observer connection notifications go to.
type Submission struct {
	SessionID string
	Conn      proxy.Connection
	Event     core.Event
}

// submissionQueue is an unbounded multi-producer queue. Push never blocks,
// which decouples request intake from workflow execution; Pop blocks until
// an item arrives or the queue is closed.
type submissionQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Submission
	closed bool
}

func newSubmissionQueue() *submissionQueue {
	q := &submissionQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a submission. Pushing to a closed queue is a no-op.
func (q *submissionQueue) Push(s Submission) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, s)
	q.cond.Signal()
}

// Pop removes the oldest submission, blocking while the queue is empty. The
// boolean reports false once the queue is closed and fully drained.
func (q *submissionQueue) Pop() (Submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return Submission{}, false
	}
	s := q.items[0]
	q.items = q.items[1:]
	return s, true
}

// Close wakes all blocked consumers; queued items are still drained.
func (q *submissionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the number of pending submissions.
func (q *submissionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
