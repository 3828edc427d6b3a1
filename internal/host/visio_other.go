// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !windows

package host

import "fmt"

// Launch returns a Launcher that always fails: Visio automation needs COM.
func Launch(progID string) Launcher {
	return func() (Application, error) {
		return nil, fmt.Errorf("launching %s: %w", progID, ErrUnsupportedPlatform)
	}
}
