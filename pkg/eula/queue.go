// Package eula holds the license agreements that blocked an install until the
// caller has resolved each of them in turn.
package eula

import "github.com/pkg/errors"

// ErrNotFound rejects a resolution for anything but the queue's head. The
// queue is strictly FIFO; out-of-order answers are refused.
var ErrNotFound = errors.New("eula is not awaiting resolution")

// IsNotFound reports whether err is the out-of-order rejection.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// Record is one pending license agreement reported by a blocked install.
type Record struct {
	EulaID    string
	PackageID string
	Vendor    string
	License   string
}

// Queue is an ordered set of pending agreements. At most one record is "in
// prompt" (handed to the caller for a decision) at any time, and records are
// never reordered. Confined to the single control goroutine.
type Queue struct {
	records   []Record
	prompting bool
}

// Enqueue appends a record. A record whose EulaID is already queued is
// ignored; the service re-reports agreements on retried transactions.
func (q *Queue) Enqueue(r Record) {
	for _, queued := range q.records {
		if queued.EulaID == r.EulaID {
			return
		}
	}
	q.records = append(q.records, r)
}

// Prompt marks the head record as awaiting the caller's decision and returns
// it. It reports false when the queue is empty or a prompt is already
// outstanding.
func (q *Queue) Prompt() (Record, bool) {
	if q.prompting || len(q.records) == 0 {
		return Record{}, false
	}
	q.prompting = true
	return q.records[0], true
}

// Head returns the head record without affecting the prompt state.
func (q *Queue) Head() (Record, bool) {
	if len(q.records) == 0 {
		return Record{}, false
	}
	return q.records[0], true
}

// Resolve removes and returns the head record, which must match eulaID.
// Anything else fails with ErrNotFound, enforcing strict FIFO resolution.
func (q *Queue) Resolve(eulaID string) (Record, error) {
	if len(q.records) == 0 || q.records[0].EulaID != eulaID {
		return Record{}, errors.WithMessage(ErrNotFound, eulaID)
	}
	head := q.records[0]
	q.records = q.records[1:]
	q.prompting = false
	return head, nil
}

// Drain removes and returns every remaining record without resolving them.
// Used when a declined agreement abandons the install.
func (q *Queue) Drain() []Record {
	drained := q.records
	q.records = nil
	q.prompting = false
	return drained
}

// Len reports the number of queued records.
func (q *Queue) Len() int {
	return len(q.records)
}

// Empty reports whether no records remain.
func (q *Queue) Empty() bool {
	return len(q.records) == 0
}
