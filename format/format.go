// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package format provides the display helpers shared by the command-line tools.
package format

import (
	"fmt"
	"net"
	"strconv"

	"github.com/fatih/color"
	"github.com/voxfleet/srvresolve/srv"
)

const (
	// Version is used to display the current version of srvresolve.
	Version = "v1.3.2"

	// Author is used to display the project maintainers.
	Author = "VoxFleet Labs - @voxfleet"
)

// Colors used to ease the reading of program output
var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
)

// Candidate returns the display line for one resolved SRV candidate.
func Candidate(rec *srv.Record) string {
	addr := net.JoinHostPort(rec.Target, strconv.Itoa(int(rec.Port)))

	return fmt.Sprintf("%s %s", green(addr),
		yellow(fmt.Sprintf("priority=%d weight=%d ttl=%d", rec.Priority, rec.Weight, rec.TTL)))
}
