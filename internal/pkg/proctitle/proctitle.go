// Package proctitle names the server process so it is recognizable in ps
// and top output.
package proctitle

import "strings"

// maxNameLen is the kernel's comm limit excluding the trailing NUL.
const maxNameLen = 15

// Format builds the process name for service running in env, truncated to
// what the kernel keeps.
func Format(service, env string) string {
	name := strings.TrimSpace(service)
	if env = strings.TrimSpace(env); env != "" && env != "production" {
		name += ":" + env
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}
