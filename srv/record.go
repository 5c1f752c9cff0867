// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package srv decodes DNS SRV resource records (RFC 2782) and orders them
// into the sequence connection attempts should follow.
package srv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors that exclude a record from the candidate set.
var (
	ErrTruncated = errors.New("rdata ended before all SRV fields were read")
	ErrBadName   = errors.New("malformed target domain name")
)

// Record is one decoded SRV resource record. A Record is immutable once
// returned by ParseRecord.
type Record struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
	TTL      uint32
}

func (r *Record) String() string {
	return fmt.Sprintf("%d %d %d %s", r.Priority, r.Weight, r.Port, r.Target)
}

// decoded carries one decode attempt along with enough information for the
// completeness check: how much of the rdata was consumed, how many of the
// three fixed fields were actually present, and whether target bytes existed.
type decoded struct {
	rec      *Record
	consumed int
	fixed    int
	named    bool
}

// decodeRecord reads as much of an SRV rdata section as is present. Fixed
// fields missing from a short buffer are left zero rather than failing, since
// completeness is judged separately. A target name that is present but
// malformed is a hard failure.
func decodeRecord(msg, rdata []byte, ttl uint32) (decoded, error) {
	d := decoded{rec: &Record{TTL: ttl}}

	fields := []*uint16{&d.rec.Priority, &d.rec.Weight, &d.rec.Port}
	for _, f := range fields {
		if len(rdata)-d.consumed < 2 {
			return d, nil
		}
		*f = binary.BigEndian.Uint16(rdata[d.consumed:])
		d.consumed += 2
		d.fixed++
	}

	if d.consumed >= len(rdata) {
		return d, nil
	}

	name, n, err := parseName(msg, rdata[d.consumed:])
	if err != nil {
		return d, err
	}
	d.rec.Target = name
	d.consumed += n
	d.named = true
	return d, nil
}

// ParseRecord decodes the rdata section of a single SRV resource record and
// accepts it only if the priority, weight, port and target were all present
// on the wire. A record truncated after any prefix of those fields is
// rejected. Field values are never range checked, since priority 0 and
// weight 0 are legal.
//
// The msg parameter holds the enclosing DNS response message so that
// compressed target names can be followed. Records whose targets use no
// compression may be parsed with the rdata alone as msg.
func ParseRecord(msg, rdata []byte, ttl uint32) (*Record, error) {
	d, err := decodeRecord(msg, rdata, ttl)
	if err != nil {
		return nil, err
	}
	if d.fixed < 3 || !d.named {
		return nil, ErrTruncated
	}
	return d.rec, nil
}
