// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package resolvers

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// DefaultTimeout is how long a transport exchange may take per server.
const DefaultTimeout = 2 * time.Second

// DefaultAttempts is how many passes over the server list are made before
// the query is failed.
const DefaultAttempts = 2

type netBackend struct {
	name     string
	priority int
	timeout  time.Duration
	attempts int
	servers  []string
}

// NewNetBackend returns a Backend that sends each query to the provided
// nameservers over UDP, falling back to TCP when a response comes back
// truncated. Cancellation is not supported once the exchange is in flight,
// matching the behavior of the underlying transport.
func NewNetBackend(name string, priority int, timeout time.Duration, attempts int, servers ...string) Backend {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	return &netBackend{
		name:     name,
		priority: priority,
		timeout:  timeout,
		attempts: attempts,
		servers:  servers,
	}
}

// Name implements the Backend interface.
func (b *netBackend) Name() string {
	return b.name
}

// Priority implements the Backend interface.
func (b *netBackend) Priority() int {
	return b.priority
}

// Resolve implements the Backend interface by servicing the query from a
// detached goroutine.
func (b *netBackend) Resolve(q *Query) error {
	if len(b.servers) == 0 {
		return &ResolveError{
			Err:   "the backend has no nameservers to query",
			Rcode: NotAvailableRcode,
		}
	}

	go b.exchange(q)
	return nil
}

// Cancel implements the Backend interface. The in-flight exchange cannot be
// stopped, so the eventual completion delivers the result.
func (b *netBackend) Cancel(q *Query) error {
	return &ResolveError{
		Err:   fmt.Sprintf("backend %s cannot cancel an in-flight query", b.name),
		Rcode: ResolverErrRcode,
	}
}

func (b *netBackend) exchange(q *Query) {
	msg := QueryMsg(q.Name, q.Qtype)

	var resp *dns.Msg
	var err error
	for i := 0; i < b.attempts && resp == nil; i++ {
		for _, server := range b.servers {
			if resp, err = b.roundTrip(msg, server); err == nil {
				break
			}
			resp = nil
		}
	}
	if resp == nil {
		q.SetError(&ResolveError{
			Err:   fmt.Sprintf("the DNS query for %s failed: %v", q.Name, err),
			Rcode: TimeoutRcode,
		})
		q.Completed()
		return
	}

	// Repacking without compression keeps record data self-contained.
	buf, err := resp.Pack()
	if err != nil {
		q.SetError(&ResolveError{
			Err:   fmt.Sprintf("failed to pack the response for %s: %v", q.Name, err),
			Rcode: ResolverErrRcode,
		})
		q.Completed()
		return
	}

	q.SetResult(resp.Rcode, resp.Question[0].Name, buf)
	for _, rr := range resp.Answer {
		data, err := packRdata(rr)
		if err != nil {
			continue
		}

		h := rr.Header()
		q.AddRecord(h.Rrtype, h.Class, h.Ttl, data)
	}
	q.Completed()
}

func (b *netBackend) roundTrip(msg *dns.Msg, server string) (*dns.Msg, error) {
	client := dns.Client{Timeout: b.timeout}

	resp, _, err := client.Exchange(msg, server)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		tcp := dns.Client{Net: "tcp", Timeout: b.timeout}

		if resp, _, err = tcp.Exchange(msg, server); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// packRdata returns the rdata section of rr in wire form. The record is
// packed into a message of its own, which leaves the names inside
// uncompressed.
func packRdata(rr dns.RR) ([]byte, error) {
	m := new(dns.Msg)
	m.Answer = []dns.RR{rr}

	buf, err := m.Pack()
	if err != nil {
		return nil, err
	}
	if len(buf) <= 12 {
		return nil, errors.New("the packed record is too short")
	}
	// Skip the message header and then the owner name.
	packed := buf[12:]
	i := 0
	for i < len(packed) {
		l := int(packed[i])
		i++
		if l == 0 {
			break
		}
		i += l
	}
	// Skip the type, class and TTL fields.
	i += 8
	if i+2 > len(packed) {
		return nil, errors.New("the packed record is too short")
	}

	rdlen := int(binary.BigEndian.Uint16(packed[i:]))
	i += 2
	if i+rdlen > len(packed) {
		return nil, errors.New("the packed record data is incomplete")
	}
	return packed[i : i+rdlen], nil
}
