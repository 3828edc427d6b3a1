// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build windows

package host

import "testing"

// The COM types are only reachable with Visio installed; checking that they
// satisfy the host interfaces keeps the binding compiling on every change.
func TestVisioTypesImplementHost(t *testing.T) {
	var (
		_ Application = (*visioApp)(nil)
		_ Document    = (*visioDoc)(nil)
		_ Page        = (*visioPage)(nil)
	)

	d := &visioDoc{}
	if len(d.opened) != 0 {
		t.Fatalf("new document tracks %d pages, want 0", len(d.opened))
	}
	if l := Launch(""); l == nil {
		t.Fatal("Launch returned nil launcher")
	}
}
