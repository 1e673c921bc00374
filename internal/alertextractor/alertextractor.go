// Package alertextractor implements the outbound-notification half of
// the message grammar (spec §4.4/§6): a message carrying the "{!}"
// token sends its prose remainder to the notifier once every command
// block has been stripped out.
package alertextractor

import (
	"regexp"
	"strings"
)

const marker = "{!}"

// blockPattern matches the same "name(symbol) { ... }" shape the
// command parser does; alertextractor only needs to strip it, not
// parse its contents.
var blockPattern = regexp.MustCompile(`(?is)[a-z][a-z0-9]*\s*\([^()]*\)\s*\{[^{}]*\}`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Extract reports whether msg carries the "{!}" marker and, if so,
// the text to send: every command block and the marker itself
// stripped out, with runs of whitespace collapsed to single spaces.
func Extract(msg string) (text string, ok bool) {
	if !strings.Contains(msg, marker) {
		return "", false
	}

	stripped := blockPattern.ReplaceAllString(msg, " ")
	stripped = strings.ReplaceAll(stripped, marker, " ")
	stripped = whitespacePattern.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(stripped), true
}
