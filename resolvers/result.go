// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package resolvers

import (
	"github.com/miekg/dns"
	"github.com/voxfleet/srvresolve/srv"
)

// RawRecord is one resource record as delivered by a transport backend,
// before any type-specific decoding has happened.
type RawRecord struct {
	Rtype uint16
	Class uint16
	TTL   uint32
	Data  []byte
}

// Result is the caller-owned outcome of a query that completed at the
// transport level. A Result with zero records is a successful resolution,
// distinct from the error returned when the transport could not complete
// the query at all.
type Result struct {
	// Rcode is the DNS response code reported by the server
	Rcode int

	// Canonical is the name the answer section belongs to
	Canonical string

	// Msg holds the wire bytes of the enclosing response message, kept so
	// that compressed names inside record data can be followed
	Msg []byte

	// Records are the raw resource records from the answer section
	Records []RawRecord
}

// SRV decodes every SRV record in the result, drops the ones that are
// truncated or carry a malformed target, and returns the survivors ordered
// for connection attempts. An empty slice means the name resolved but
// advertises no usable targets.
func (r *Result) SRV() []*srv.Record {
	var records []*srv.Record

	for _, rr := range r.Records {
		if rr.Rtype != dns.TypeSRV {
			continue
		}

		rec, err := srv.ParseRecord(r.Msg, rr.Data, rr.TTL)
		if err != nil {
			// A corrupt record is excluded as if it never existed.
			continue
		}
		records = append(records, rec)
	}
	return srv.Sort(records)
}
