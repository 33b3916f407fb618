package post

import (
	"regexp"
	"strings"
)

var slugStrip = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// Slugify derives the permanent slug of a post from its title: words joined
// by hyphens, lowercased, everything outside [a-z0-9-] dropped.
func Slugify(title string) string {
	joined := strings.Join(strings.Split(title, " "), "-")
	return slugStrip.ReplaceAllString(strings.ToLower(joined), "")
}
