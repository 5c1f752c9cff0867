// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package srv

import "strings"

const (
	// maxNameLen is the limit RFC 1035 places on an encoded domain name.
	maxNameLen = 255
	// ptrMask marks the two high bits that turn a label length into a
	// compression pointer.
	ptrMask = 0xC0
	// maxPtrJumps bounds pointer chasing so that looping pointers terminate.
	maxPtrJumps = 8
)

// parseName reads a wire-format domain name from data, following compression
// pointers into the enclosing message msg. It returns the name in dotted form
// without the trailing root dot, and the number of bytes consumed from data.
func parseName(msg, data []byte) (string, int, error) {
	var b strings.Builder
	var consumed int

	cur := data
	i := 0
	jumped := false
	jumps := 0
	for {
		if i >= len(cur) {
			// Ran off the buffer without hitting the root label.
			return "", 0, ErrBadName
		}

		switch c := cur[i]; {
		case c == 0:
			if !jumped {
				consumed = i + 1
			}
			if b.Len() == 0 {
				return "", 0, ErrBadName
			}
			return b.String(), consumed, nil
		case c&ptrMask == ptrMask:
			if i+1 >= len(cur) {
				return "", 0, ErrBadName
			}
			off := int(c&^byte(ptrMask))<<8 | int(cur[i+1])
			if !jumped {
				consumed = i + 2
			}
			if off >= len(msg) {
				return "", 0, ErrBadName
			}
			if jumps++; jumps > maxPtrJumps {
				return "", 0, ErrBadName
			}
			cur = msg
			i = off
			jumped = true
		case c&ptrMask != 0:
			// 0x40 and 0x80 are reserved label types, which also
			// catches any label claiming more than 63 bytes.
			return "", 0, ErrBadName
		default:
			if i+1+int(c) > len(cur) {
				return "", 0, ErrBadName
			}
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.Write(cur[i+1 : i+1+int(c)])
			if b.Len() > maxNameLen {
				return "", 0, ErrBadName
			}
			i += 1 + int(c)
		}
	}
}

// AppendName appends name to buf as an uncompressed label sequence ending
// with the root label. Used to build rdata for tests and synthetic answers.
func AppendName(buf []byte, name string) []byte {
	for _, label := range strings.Split(strings.TrimSuffix(name, "."), ".") {
		if label == "" {
			continue
		}
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	return append(buf, 0)
}

// AppendRecord appends the complete wire form of rec to buf: priority, weight
// and port big-endian, then the target as an uncompressed name.
func AppendRecord(buf []byte, rec *Record) []byte {
	for _, v := range []uint16{rec.Priority, rec.Weight, rec.Port} {
		buf = append(buf, byte(v>>8), byte(v))
	}
	return AppendName(buf, rec.Target)
}
