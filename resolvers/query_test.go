// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package resolvers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingBackend holds production until released, so that tests can control
// which side wins the race between cancellation and completion.
type blockingBackend struct {
	release chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{
		release: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (b *blockingBackend) Name() string {
	return "srv_blocking"
}

func (b *blockingBackend) Priority() int {
	return 0
}

func (b *blockingBackend) Resolve(q *Query) error {
	go func() {
		select {
		case <-b.stopped:
			return
		case <-b.release:
		}

		q.SetResult(dns.RcodeSuccess, q.Name, buildMessage(q.Name, nil))
		q.Completed()
	}()
	return nil
}

func (b *blockingBackend) Cancel(q *Query) error {
	b.once.Do(func() {
		close(b.stopped)
	})
	return nil
}

func TestQueryCancel(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	backend := newBlockingBackend()
	require.NoError(t, r.Register(backend))

	q, err := r.ResolveAsync(testDomain, dns.TypeSRV)
	require.NoError(t, err)

	require.NoError(t, q.Cancel())
	<-q.Done()

	result, err := q.Result()
	require.Nil(t, result)
	require.Error(t, err)

	rerr, ok := err.(*ResolveError)
	require.True(t, ok)
	assert.Equal(t, CanceledRcode, rerr.Rcode)

	// A canceled query cannot be canceled again.
	assert.Error(t, q.Cancel())
}

func TestQueryCancelAfterCompletion(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	backend := newBlockingBackend()
	require.NoError(t, r.Register(backend))

	q, err := r.ResolveAsync(testDomain, dns.TypeSRV)
	require.NoError(t, err)

	close(backend.release)
	<-q.Done()

	// The completion already delivered, so its result stands.
	assert.Error(t, q.Cancel())

	result, err := q.Result()
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestQueryCompletedTwice(t *testing.T) {
	q := newQuery(testDomain, dns.TypeSRV, &fixtureBackend{name: "srv_test"}, nil)

	q.SetResult(dns.RcodeSuccess, testDomain, buildMessage(testDomain, nil))
	q.Completed()
	q.Completed()

	<-q.Done()
	result, err := q.Result()
	require.NoError(t, err)
	assert.Equal(t, testDomain, result.Canonical)
}

func TestQueryCompletedWithoutResponse(t *testing.T) {
	q := newQuery(testDomain, dns.TypeSRV, &fixtureBackend{name: "srv_test"}, nil)

	q.Completed()
	<-q.Done()

	_, err := q.Result()
	require.Error(t, err)
}

func TestQueryTransportFailure(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	require.NoError(t, r.Register(&failingBackend{}))

	_, err := r.ResolveSRV(context.Background(), testDomain)
	require.Error(t, err)

	rerr, ok := err.(*ResolveError)
	require.True(t, ok)
	assert.Equal(t, TimeoutRcode, rerr.Rcode)
}

func TestQueryEmptyAnswerIsSuccess(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	require.NoError(t, r.Register(&fixtureBackend{name: "srv_test"}))

	// No answers is a completed resolution, not a failure.
	candidates, err := r.ResolveSRV(context.Background(), testDomain)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestResolveContextCancellation(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	backend := newBlockingBackend()
	require.NoError(t, r.Register(backend))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, testDomain, dns.TypeSRV)
	require.Error(t, err)

	rerr, ok := err.(*ResolveError)
	require.True(t, ok)
	assert.Equal(t, CanceledRcode, rerr.Rcode)
}

// failingBackend reports a transport failure for every query.
type failingBackend struct{}

func (b *failingBackend) Name() string {
	return "srv_failing"
}

func (b *failingBackend) Priority() int {
	return 0
}

func (b *failingBackend) Resolve(q *Query) error {
	go func() {
		q.SetError(&ResolveError{
			Err:   "the nameserver did not respond",
			Rcode: TimeoutRcode,
		})
		q.Completed()
	}()
	return nil
}

func (b *failingBackend) Cancel(q *Query) error {
	return &ResolveError{Err: "cancel is not supported", Rcode: ResolverErrRcode}
}
