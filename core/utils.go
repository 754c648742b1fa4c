package core

import "strings"

// CleanString trims surrounding whitespace from free-text authoring input.
func CleanString(s string) string {
	return strings.TrimSpace(s)
}
