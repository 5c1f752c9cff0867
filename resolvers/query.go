// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package resolvers

import (
	"sync"

	"github.com/google/uuid"
)

// Query is the handle returned for one in-flight resolution. The servicing
// backend produces the outcome from its own goroutine through SetResult,
// AddRecord and Completed, and waiters block on Done before reading it with
// Result. Exactly one outcome is ever delivered, even when Cancel races the
// completion.
type Query struct {
	// ID labels the query in logs and callbacks
	ID string

	// Name is the domain name being resolved
	Name string

	// Qtype is the DNS record type requested
	Qtype uint16

	backend Backend
	notify  func(*Query)

	sync.Mutex
	result   *Result
	err      error
	finished bool
	done     chan struct{}
}

func newQuery(name string, qtype uint16, b Backend, notify func(*Query)) *Query {
	return &Query{
		ID:      uuid.New().String(),
		Name:    name,
		Qtype:   qtype,
		backend: b,
		notify:  notify,
		done:    make(chan struct{}),
	}
}

// SetResult records the transport-level outcome of the query. The msg bytes
// are copied, since compressed names in record data refer back into them.
func (q *Query) SetResult(rcode int, canonical string, msg []byte) {
	q.Lock()
	defer q.Unlock()

	if q.finished {
		return
	}
	q.result = &Result{
		Rcode:     rcode,
		Canonical: RemoveLastDot(canonical),
		Msg:       append([]byte(nil), msg...),
	}
}

// AddRecord appends one raw resource record to the pending result.
func (q *Query) AddRecord(rtype, class uint16, ttl uint32, data []byte) {
	q.Lock()
	defer q.Unlock()

	if q.finished || q.result == nil {
		return
	}
	q.result.Records = append(q.result.Records, RawRecord{
		Rtype: rtype,
		Class: class,
		TTL:   ttl,
		Data:  append([]byte(nil), data...),
	})
}

// SetError marks the query as failed at the transport level.
func (q *Query) SetError(err error) {
	q.Lock()
	defer q.Unlock()

	if q.finished {
		return
	}
	q.result = nil
	q.err = err
}

// Completed finalizes the query with whatever the backend produced. Calling
// it more than once, or after a successful cancellation, has no effect.
func (q *Query) Completed() {
	q.Lock()
	if q.finished {
		q.Unlock()
		return
	}
	q.finished = true
	if q.result == nil && q.err == nil {
		q.err = &ResolveError{
			Err:   "the query completed without a response",
			Rcode: ResolverErrRcode,
		}
	}
	notify := q.notify
	q.Unlock()

	if notify != nil {
		notify(q)
	} else {
		q.deliver()
	}
}

// Cancel asks the servicing backend to stop the query. Cancellation is
// best-effort: when the backend reports that the query can no longer be
// stopped, the error is returned and the in-flight completion still delivers
// its result. A successfully canceled query yields a canceled failure
// instead, never both outcomes.
func (q *Query) Cancel() error {
	q.Lock()
	if q.finished {
		q.Unlock()
		return &ResolveError{
			Err:   "the query has already completed",
			Rcode: ResolverErrRcode,
		}
	}
	b := q.backend
	q.Unlock()

	if err := b.Cancel(q); err != nil {
		return err
	}

	q.Lock()
	if q.finished {
		// Completion won the race, so its result stands.
		q.Unlock()
		return nil
	}
	q.finished = true
	q.result = nil
	q.err = &ResolveError{
		Err:   "the query was canceled",
		Rcode: CanceledRcode,
	}
	notify := q.notify
	q.Unlock()

	if notify != nil {
		notify(q)
	} else {
		q.deliver()
	}
	return nil
}

// Done returns the channel closed once the outcome has been delivered.
func (q *Query) Done() <-chan struct{} {
	return q.done
}

// Result returns the outcome of the query and must only be called after the
// Done channel has been closed.
func (q *Query) Result() (*Result, error) {
	q.Lock()
	defer q.Unlock()

	if q.err != nil {
		return nil, q.err
	}
	return q.result, nil
}

func (q *Query) deliver() {
	close(q.done)
}
