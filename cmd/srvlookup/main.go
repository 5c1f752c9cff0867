// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// srvlookup resolves the DNS SRV records for a service name and prints the
// candidate endpoints in the order connection attempts should be made.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/voxfleet/srvresolve/config"
	"github.com/voxfleet/srvresolve/format"
	"github.com/voxfleet/srvresolve/resolvers"
)

const usageMsg = "[options] <service domain>"

var (
	r = color.New(color.FgHiRed)
	y = color.New(color.FgHiYellow)
)

func main() {
	var help bool
	var cfgPath, servers string
	var timeout, attempts int

	flags := flag.NewFlagSet("srvlookup", flag.ContinueOnError)
	flags.BoolVar(&help, "h", false, "Show the program usage message")
	flags.StringVar(&cfgPath, "config", "", "Path to the INI configuration file")
	flags.StringVar(&servers, "r", "", "Comma separated nameserver addresses to query")
	flags.IntVar(&timeout, "timeout", 0, "Seconds allowed for each nameserver exchange")
	flags.IntVar(&attempts, "attempts", 0, "Number of passes made over the nameserver list")

	flags.Usage = func() {
		printUsage(flags)
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if help || len(flags.Args()) != 1 {
		printUsage(flags)
		os.Exit(1)
	}
	domain := flags.Arg(0)

	cfg := config.NewConfig()
	if cfgPath != "" {
		if err := cfg.LoadSettings(cfgPath); err != nil {
			r.Fprintf(color.Error, "%v\n", err)
			os.Exit(1)
		}
	}
	if servers != "" {
		cfg.SetResolvers(strings.Split(servers, ",")...)
	}
	if timeout > 0 {
		cfg.Timeout = time.Duration(timeout) * time.Second
	}
	if attempts > 0 {
		cfg.Attempts = attempts
	}

	registry := resolvers.NewRegistry()
	defer registry.Stop()

	backend := resolvers.NewNetBackend("net", 0, cfg.Timeout, cfg.Attempts, cfg.Resolvers...)
	if err := registry.Register(backend); err != nil {
		r.Fprintf(color.Error, "Failed to set up the transport backend: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	candidates, err := registry.ResolveSRV(ctx, domain)
	if err != nil {
		r.Fprintf(color.Error, "Failed to resolve %s: %v\n", domain, err)
		os.Exit(1)
	}
	if len(candidates) == 0 {
		// The lookup completed, the service advertises no targets.
		y.Fprintf(color.Error, "%s resolved with no usable SRV targets\n", domain)
		return
	}

	for _, rec := range candidates {
		fmt.Println(format.Candidate(rec))
	}
}

func printUsage(flags *flag.FlagSet) {
	y.Fprintf(color.Error, "Usage: %s %s\n", os.Args[0], usageMsg)
	flags.PrintDefaults()
	y.Fprintf(color.Error, "\nsrvresolve %s by %s\n", format.Version, format.Author)
}
