// Copyright 2019-2023 VoxFleet Labs. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package resolvers

import (
	"context"
	"testing"

	"github.com/caffix/stringset"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	b := &fixtureBackend{name: "srv_test"}
	if err := r.Register(b); err != nil {
		t.Fatalf("Failed to register the backend: %v", err)
	}
	if err := r.Register(b); err == nil {
		t.Errorf("Expected the duplicate registration to fail")
	}

	if err := r.Unregister("srv_test"); err != nil {
		t.Errorf("Failed to unregister the backend: %v", err)
	}
	if err := r.Unregister("srv_test"); err == nil {
		t.Errorf("Expected the repeated unregistration to fail")
	}
}

func TestRegistryNoBackend(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	_, err := r.ResolveSRV(context.Background(), testDomain)
	if err == nil {
		t.Fatalf("Expected the resolution to fail with no backend registered")
	}

	rerr, ok := err.(*ResolveError)
	if !ok || rerr.Rcode != NotAvailableRcode {
		t.Errorf("Unexpected error from the empty registry: %v", err)
	}
}

func TestRegistryPriorityDispatch(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	preferred := &fixtureBackend{
		name:     "srv_preferred",
		priority: 0,
		records:  []srvFixture{{priority: 10, weight: 10, port: 5060, host: "goose.down"}},
	}
	fallback := &fixtureBackend{
		name:     "srv_fallback",
		priority: 5,
		records:  []srvFixture{{priority: 10, weight: 10, port: 5060, host: "tacos"}},
	}

	for _, b := range []Backend{fallback, preferred} {
		if err := r.Register(b); err != nil {
			t.Fatalf("Failed to register the backend: %v", err)
		}
	}

	targets := stringset.New()
	defer targets.Close()

	candidates, err := r.ResolveSRV(context.Background(), testDomain)
	if err != nil {
		t.Fatalf("DNS resolution failed: %v", err)
	}
	for _, rec := range candidates {
		targets.Insert(rec.Target)
	}

	if !targets.Has("goose.down") || targets.Has("tacos") {
		t.Errorf("Expected the lower priority backend to service the query")
	}

	// With the preferred backend gone, dispatch moves to the fallback.
	if err := r.Unregister("srv_preferred"); err != nil {
		t.Fatalf("Failed to unregister the backend: %v", err)
	}

	candidates, err = r.ResolveSRV(context.Background(), testDomain)
	if err != nil {
		t.Fatalf("DNS resolution failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Target != "tacos" {
		t.Errorf("Expected the remaining backend to service the query")
	}
}
