// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package resolvers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caffix/queue"
	"github.com/miekg/dns"
	"github.com/voxfleet/srvresolve/srv"
)

// Registry holds the named resolver backends and dispatches each query to
// the registered backend with the most preferred priority. Completed queries
// are handed to a single collector goroutine for delivery, keeping backend
// producer goroutines decoupled from the callers waiting on them.
type Registry struct {
	sync.Mutex
	backends  map[string]Backend
	completed queue.Queue
	done      chan struct{}
	closed    sync.Once
}

// NewRegistry initializes a Registry and starts its delivery collector.
func NewRegistry() *Registry {
	r := &Registry{
		backends:  make(map[string]Backend),
		completed: queue.NewQueue(),
		done:      make(chan struct{}),
	}

	go r.collectCompletions()
	return r
}

// Stop shuts down the delivery collector. Outstanding queries should be
// waited on or canceled before the registry is stopped.
func (r *Registry) Stop() {
	r.closed.Do(func() {
		close(r.done)
	})
}

// Register adds the backend to the registry under its name.
func (r *Registry) Register(b Backend) error {
	r.Lock()
	defer r.Unlock()

	if _, found := r.backends[b.Name()]; found {
		return fmt.Errorf("a backend named %s has already been registered", b.Name())
	}
	r.backends[b.Name()] = b
	return nil
}

// Unregister removes the named backend from the registry.
func (r *Registry) Unregister(name string) error {
	r.Lock()
	defer r.Unlock()

	if _, found := r.backends[name]; !found {
		return fmt.Errorf("no backend named %s has been registered", name)
	}
	delete(r.backends, name)
	return nil
}

// preferred returns the registered backend with the lowest priority value.
func (r *Registry) preferred() Backend {
	r.Lock()
	defer r.Unlock()

	var best Backend
	for _, b := range r.backends {
		if best == nil || b.Priority() < best.Priority() {
			best = b
		}
	}
	return best
}

// ResolveAsync dispatches the query and returns its handle immediately.
func (r *Registry) ResolveAsync(name string, qtype uint16) (*Query, error) {
	b := r.preferred()
	if b == nil {
		return nil, &ResolveError{
			Err:   "no resolver backend has been registered",
			Rcode: NotAvailableRcode,
		}
	}

	q := newQuery(name, qtype, b, r.queryCompleted)
	if err := b.Resolve(q); err != nil {
		return nil, err
	}
	return q, nil
}

// Resolve runs a query to completion. When the context expires first, the
// query is canceled best-effort and the single delivered outcome, result or
// canceled failure, is returned.
func (r *Registry) Resolve(ctx context.Context, name string, qtype uint16) (*Result, error) {
	q, err := r.ResolveAsync(name, qtype)
	if err != nil {
		return nil, err
	}

	select {
	case <-q.Done():
	case <-ctx.Done():
		_ = q.Cancel()
		<-q.Done()
	}
	return q.Result()
}

// ResolveSRV resolves the service name and returns the candidate sequence in
// the order connection attempts should be made. An empty sequence with a nil
// error means the query completed but advertises no usable targets, which is
// not a failure.
func (r *Registry) ResolveSRV(ctx context.Context, name string) ([]*srv.Record, error) {
	result, err := r.Resolve(ctx, name, dns.TypeSRV)
	if err != nil {
		return nil, err
	}
	return result.SRV(), nil
}

func (r *Registry) queryCompleted(q *Query) {
	r.completed.Append(q)
}

func (r *Registry) collectCompletions() {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
loop:
	for {
		select {
		case <-r.done:
			break loop
		case <-r.completed.Signal():
			if element, ok := r.completed.Next(); ok {
				r.deliver(element)
			}
		case <-t.C:
			if element, ok := r.completed.Next(); ok {
				r.deliver(element)
			}
		}
	}
	r.completed.Process(r.deliver)
}

func (r *Registry) deliver(element interface{}) {
	if q, ok := element.(*Query); ok {
		q.deliver()
	}
}
