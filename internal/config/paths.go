package config

import (
	"os"
	"path/filepath"
)

// ExecutableDir returns the directory holding the running binary, or the
// working directory when that cannot be determined.
func ExecutableDir() string {
	if exe, err := os.Executable(); err == nil && exe != "" {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil && resolved != "" {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return "."
}

// resolvePath anchors a relative path at base, which defaults to the
// executable directory. An empty raw path uses fallback.
func resolvePath(base, raw, fallback string) string {
	target := firstNonEmpty(raw, fallback)
	if target != "" && filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	if base == "" {
		base = ExecutableDir()
	}
	return filepath.Clean(filepath.Join(base, target))
}
