// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package config loads the settings used to stand up transport backends.
package config

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/caffix/stringset"
	"github.com/go-ini/ini"
)

// DefaultTimeout is how long one exchange with a nameserver may take.
const DefaultTimeout = 2 * time.Second

// DefaultAttempts is how many passes over the nameserver list are made.
const DefaultAttempts = 2

// DefaultBaselineResolvers is a list of trusted public DNS resolvers.
var DefaultBaselineResolvers = []string{
	"8.8.8.8", // Google
	"1.1.1.1", // Cloudflare
	"9.9.9.9", // Quad9
	"64.6.64.6", // Neustar DNS
}

// Config passes along the resolution settings.
type Config struct {
	sync.Mutex

	// Resolvers is the list of nameserver addresses queried by the transport
	Resolvers []string

	// Timeout for each exchange with a nameserver
	Timeout time.Duration

	// Attempts is the number of passes made over the nameserver list
	Attempts int
}

// NewConfig returns a default configuration using the baseline resolvers.
func NewConfig() *Config {
	return &Config{
		Resolvers: normalizeAddrs(DefaultBaselineResolvers),
		Timeout:   DefaultTimeout,
		Attempts:  DefaultAttempts,
	}
}

// SetResolvers assigns the nameserver addresses provided in the parameter to the configuration.
func (c *Config) SetResolvers(resolvers ...string) {
	c.Lock()
	c.Resolvers = []string{}
	c.Unlock()

	c.AddResolvers(resolvers...)
}

// AddResolvers appends the nameserver addresses provided in the parameter to the configuration.
func (c *Config) AddResolvers(resolvers ...string) {
	for _, r := range resolvers {
		c.AddResolver(r)
	}
}

// AddResolver appends the nameserver address provided in the parameter to the configuration.
func (c *Config) AddResolver(resolver string) {
	c.Lock()
	defer c.Unlock()

	r := strings.TrimSpace(resolver)
	if r == "" {
		return
	}
	c.Resolvers = stringset.Deduplicate(append(c.Resolvers, normalizeAddr(r)))
}

// LoadSettings parses settings from the INI file at path and assigns them to the Config.
func (c *Config) LoadSettings(path string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:  true,
		AllowShadows: true,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to load the configuration file: %v", err)
	}

	if err := c.loadResolverSettings(cfg); err != nil {
		return err
	}
	return c.loadOptionsSettings(cfg)
}

func (c *Config) loadResolverSettings(cfg *ini.File) error {
	sec, err := cfg.GetSection("resolvers")
	if err != nil {
		return nil
	}

	resolvers := sec.Key("resolver").ValueWithShadows()
	if len(resolvers) == 0 {
		return fmt.Errorf("the resolvers section does not contain any resolver keys")
	}

	c.SetResolvers(resolvers...)
	return nil
}

func (c *Config) loadOptionsSettings(cfg *ini.File) error {
	sec, err := cfg.GetSection("options")
	if err != nil {
		return nil
	}

	if timeout := sec.Key("timeout").MustInt(0); timeout > 0 {
		c.Timeout = time.Duration(timeout) * time.Second
	}
	if attempts := sec.Key("attempts").MustInt(0); attempts > 0 {
		c.Attempts = attempts
	}
	return nil
}

// normalizeAddr appends the default DNS port to an address missing one.
func normalizeAddr(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return net.JoinHostPort(addr, "53")
	}
	return addr
}

func normalizeAddrs(addrs []string) []string {
	normalized := make([]string, 0, len(addrs))

	for _, addr := range addrs {
		normalized = append(normalized, normalizeAddr(addr))
	}
	return normalized
}
