package intake

import "strings"

// SanitizeFromName turns a raw From header value into a filename fragment
// by stripping exactly one leading "<" and one trailing ">" if present.
// Anything else passes through unchanged; the msgid prefix on every saved
// filename is what guarantees collision and injection safety, not this
// function.
func SanitizeFromName(from string) string {
	result := from
	if strings.HasPrefix(result, "<") {
		result = result[1:]
	}
	if strings.HasSuffix(result, ">") {
		result = result[:len(result)-1]
	}
	return result
}
