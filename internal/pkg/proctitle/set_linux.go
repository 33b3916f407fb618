//go:build linux

package proctitle

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Set renames the calling thread group via PR_SET_NAME.
func Set(name string) error {
	if name == "" {
		return errors.New("empty process name")
	}
	b := make([]byte, maxNameLen+1)
	copy(b, name)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}
