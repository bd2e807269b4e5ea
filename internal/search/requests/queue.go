// Package requests tracks how many recent queries returned no results.
// The window is counted in calls, not wall time: the last Window calls to
// AddFindRequest are inspected, older ones age out one unit per call.
package requests

import (
	"sync"

	"github.com/Janucorn/searchd/internal/search/engine"
)

// Window is the number of calls the queue remembers.
const Window = 1440

// emptyLabel marks intervals of consecutive no-result queries.
const emptyLabel = "empty request"

// interval is a run of consecutive calls sharing one label: either the
// raw query text, or emptyLabel for queries that found nothing.
type interval struct {
	label string
	count int
}

// Queue wraps an engine's search entry points and keeps run-length
// bookkeeping of no-result queries over the window.
type Queue struct {
	mu        sync.Mutex
	eng       *engine.Engine
	intervals []interval
	tick      int
}

// New creates a Queue over the given engine.
func New(eng *engine.Engine) *Queue {
	return &Queue{eng: eng}
}

// AddFindRequest runs a ranked query over ACTUAL documents and records
// whether it came back empty.
func (q *Queue) AddFindRequest(raw string) ([]engine.Document, error) {
	return q.AddFindRequestWithPredicate(raw, nil)
}

// AddFindRequestByStatus is AddFindRequest with a status filter.
func (q *Queue) AddFindRequestByStatus(raw string, status engine.Status) ([]engine.Document, error) {
	return q.AddFindRequestWithPredicate(raw, engine.ByStatus(status))
}

// AddFindRequestWithPredicate advances the window by one tick, ages out
// the oldest recorded unit once the window is full, runs the query, and
// records the outcome. A parse error still consumes a tick but records
// nothing.
func (q *Queue) AddFindRequestWithPredicate(raw string, predicate engine.Predicate) ([]engine.Document, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tick++
	if q.tick > Window && len(q.intervals) > 0 {
		if q.intervals[0].count > 1 {
			q.intervals[0].count--
		} else {
			q.intervals = q.intervals[1:]
		}
	}

	docs, err := q.eng.FindTopDocuments(engine.Sequential, raw, predicate)
	if err != nil {
		return nil, err
	}

	label := raw
	if len(docs) == 0 {
		label = emptyLabel
	}
	if n := len(q.intervals); n == 0 || q.intervals[n-1].label != label {
		q.intervals = append(q.intervals, interval{label: label, count: 1})
	} else {
		q.intervals[n-1].count++
	}
	return docs, nil
}

// NoResultCount returns how many of the remembered calls found nothing.
func (q *Queue) NoResultCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for _, iv := range q.intervals {
		if iv.label == emptyLabel {
			total += iv.count
		}
	}
	return total
}
