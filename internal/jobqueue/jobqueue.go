// Package jobqueue implements the three priority lanes (spec §4.9):
// Critical, Metadata, Content, each a FIFO deque.
package jobqueue

import (
	"container/list"
	"sync"

	"github.com/joyshmitz/ultrasearch/internal/model"
)

// Queues holds the three lanes. Each lane is guarded by its own mutex so a
// single producer per lane (change watcher / MFT enumerator) never blocks
// the scheduler tick's consumer on an unrelated lane, per spec §5's
// "single producer per lane... single consumer" guidance.
type Queues struct {
	critical Lane
	metadata Lane
	content  Lane
}

// Lane is a single FIFO deque of jobs, safe for one producer and one
// consumer to use concurrently.
type Lane struct {
	mu    sync.Mutex
	items *list.List
}

func newLane() Lane {
	return Lane{items: list.New()}
}

// New builds an empty set of queues.
func New() *Queues {
	return &Queues{
		critical: newLane(),
		metadata: newLane(),
		content:  newLane(),
	}
}

// Critical returns the critical-priority lane (deletes/renames/attr
// updates), scheduled unconditionally regardless of idle/load state.
func (q *Queues) Critical() *Lane { return &q.critical }

// Metadata returns the metadata lane (MFT/USN rebuilds, small batches).
func (q *Queues) Metadata() *Lane { return &q.metadata }

// Content returns the content lane (heavy extraction/index writes).
func (q *Queues) Content() *Lane { return &q.content }

func (q *Queues) laneFor(category model.JobCategory) *Lane {
	switch category {
	case model.JobCritical:
		return &q.critical
	case model.JobMetadata:
		return &q.metadata
	default:
		return &q.content
	}
}

// Push appends job to the lane matching category.
func (q *Queues) Push(category model.JobCategory, job model.Job) {
	job.Category = category
	l := q.laneFor(category)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items.PushBack(job)
}

// Len returns the total number of queued jobs across all lanes.
func (q *Queues) Len() int {
	c, m, ct := q.Counts()
	return c + m + ct
}

// Counts returns (critical, metadata, content) lengths.
func (q *Queues) Counts() (critical, metadata, content int) {
	return q.critical.Len(), q.metadata.Len(), q.content.Len()
}

// Len returns the number of jobs currently queued in the lane.
func (l *Lane) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items.Len()
}

// PopFront removes and returns the job at the head of the lane, or false
// if empty.
func (l *Lane) PopFront() (model.Job, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.items.Front()
	if e == nil {
		return model.Job{}, false
	}
	l.items.Remove(e)
	return e.Value.(model.Job), true
}

// PushFront re-queues a job at the head, preserving FIFO order when a
// budget-exceeding job must be put back (spec §4.10 step 6).
func (l *Lane) PushFront(job model.Job) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items.PushFront(job)
}
