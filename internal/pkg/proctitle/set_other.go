//go:build !linux

package proctitle

// Set is a no-op where the platform has no portable rename call.
func Set(string) error { return nil }
