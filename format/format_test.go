// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package format

import (
	"testing"

	"github.com/fatih/color"
	"github.com/voxfleet/srvresolve/srv"
)

func TestCandidate(t *testing.T) {
	restore := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = restore }()

	rec := &srv.Record{Priority: 10, Weight: 20, Port: 5060, Target: "goose.down", TTL: 12345}

	want := "goose.down:5060 priority=10 weight=20 ttl=12345"
	if got := Candidate(rec); got != want {
		t.Errorf("Unexpected candidate line: %s", got)
	}
}
