package pipeline

import "time"

// DefaultPollInterval bounds each queue wait so the drain loop never parks
// indefinitely on a quiet queue.
const DefaultPollInterval = time.Second

// Record is a queued entity that can mark the end of its stream.
type Record interface {
	Sentinel() bool
}

// Drain dispatches every queued record to apply, in dequeue order, until the
// queue closes or a sentinel record arrives. The sentinel itself is never
// dispatched. An expired poll simply retries; delivery is not complete until
// a termination signal is observed.
//
// Draining is fail-fast: the first apply error aborts the drain and the
// remainder of the queue is left untouched, so the failure point stays
// debuggable. The returned count is the number of records applied before
// termination, whether the drain succeeded or not.
func Drain[T Record](q *Queue[T], apply func(T) error) (int, error) {
	applied := 0
	for {
		rec, res := q.Poll(DefaultPollInterval)
		switch res {
		case Empty:
			continue
		case Closed:
			return applied, nil
		}
		if rec.Sentinel() {
			return applied, nil
		}
		if err := apply(rec); err != nil {
			return applied, err
		}
		applied++
	}
}
