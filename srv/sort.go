// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package srv

import (
	"math/rand"
	"sort"
)

// Sort orders records for connection attempts per RFC 2782: ascending
// priority first, then weighted random selection among records sharing a
// priority. Records with weight zero are always placed after every record
// with a nonzero weight in the same priority level, keeping their original
// relative order. The input slice is not modified.
//
// The global math/rand source backs the weighted draws, so Sort is safe to
// call from any number of concurrent resolutions.
func Sort(records []*Record) []*Record {
	out := make([]*Record, 0, len(records))
	if len(records) == 0 {
		return out
	}

	tiers := make(map[uint16][]*Record)
	var priorities []uint16
	for _, r := range records {
		if _, found := tiers[r.Priority]; !found {
			priorities = append(priorities, r.Priority)
		}
		tiers[r.Priority] = append(tiers[r.Priority], r)
	}

	sort.Slice(priorities, func(i, j int) bool {
		return priorities[i] < priorities[j]
	})

	for _, p := range priorities {
		out = append(out, orderByWeight(tiers[p])...)
	}
	return out
}

// orderByWeight produces the total order for one priority level. Each draw
// selects a remaining nonzero-weight record with probability proportional to
// its weight relative to the remaining pool.
func orderByWeight(tier []*Record) []*Record {
	if len(tier) == 1 {
		return tier
	}

	var nonzero, zero []*Record
	for _, r := range tier {
		if r.Weight == 0 {
			zero = append(zero, r)
		} else {
			nonzero = append(nonzero, r)
		}
	}

	out := make([]*Record, 0, len(tier))
	for len(nonzero) > 0 {
		var total int
		for _, r := range nonzero {
			total += int(r.Weight)
		}

		sum := 0
		draw := rand.Intn(total)
		for i, r := range nonzero {
			if sum += int(r.Weight); sum > draw {
				out = append(out, r)
				nonzero = append(nonzero[:i], nonzero[i+1:]...)
				break
			}
		}
	}
	// Zero-weight records come last and are not shuffled among themselves.
	return append(out, zero...)
}
