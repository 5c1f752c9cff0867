// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package resolvers provides the asynchronous DNS resolution framework that
// feeds the SRV ordering engine: a registry of pluggable backends, a query
// handle completed from a background producer, and a UDP/TCP transport built
// on miekg/dns.
package resolvers

import (
	"github.com/miekg/dns"
)

// Rcodes used by the framework to label failures that never reached a server.
const (
	// ResolverErrRcode is our made up rcode to indicate an interface error.
	ResolverErrRcode = 100
	// TimeoutRcode is our made up rcode to indicate that a query timed out.
	TimeoutRcode = 101
	// CanceledRcode is our made up rcode to indicate a canceled query.
	CanceledRcode = 102
	// NotAvailableRcode is our made up rcode to indicate an availability problem.
	NotAvailableRcode = 256
)

// ResolveError contains the Rcode returned during the DNS query.
type ResolveError struct {
	Err   string
	Rcode int
}

func (e *ResolveError) Error() string {
	return e.Err
}

// Backend is one registered resolver implementation. Resolve must not block:
// it starts production of the result and returns, with the outcome delivered
// later through the Query producer methods. Cancel is best-effort and returns
// an error when the in-flight query can no longer be stopped.
type Backend interface {
	// Name returns the identifier the backend was registered under
	Name() string

	// Priority returns the selection priority, where lower is preferred
	Priority() int

	// Resolve starts servicing the query
	Resolve(q *Query) error

	// Cancel attempts to stop the in-flight query
	Cancel(q *Query) error
}

// RemoveLastDot removes the '.' at the end of the provided FQDN.
func RemoveLastDot(name string) string {
	sz := len(name)
	if sz > 0 && name[sz-1] == '.' {
		return name[:sz-1]
	}
	return name
}

// QueryMsg builds the DNS query message sent by transport backends.
func QueryMsg(name string, qtype uint16) *dns.Msg {
	m := &dns.Msg{
		MsgHdr: dns.MsgHdr{
			Authoritative:     false,
			AuthenticatedData: false,
			CheckingDisabled:  false,
			RecursionDesired:  true,
			Opcode:            dns.OpcodeQuery,
			Id:                dns.Id(),
			Rcode:             dns.RcodeSuccess,
		},
		Question: make([]dns.Question, 1),
	}
	m.Question[0] = dns.Question{
		Name:   dns.Fqdn(name),
		Qtype:  qtype,
		Qclass: uint16(dns.ClassINET),
	}
	return m
}
