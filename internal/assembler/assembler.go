// Package assembler turns ranked passages into a bounded prompt context.
package assembler

import "strings"

// Unbounded disables truncation.
const Unbounded = -1

// DefaultMaxLength is the default context budget in characters.
const DefaultMaxLength = 1000

// Assemble joins ranked texts with newlines, nearest first, and keeps at most
// maxLength characters from the start. A negative maxLength keeps everything.
func Assemble(texts []string, maxLength int) string {
	return Truncate(strings.Join(texts, "\n"), maxLength)
}

// Truncate cuts s to at most maxLength characters (runes), never splitting a
// multi-byte character.
func Truncate(s string, maxLength int) string {
	if maxLength < 0 || len(s) <= maxLength {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLength {
			return s[:i]
		}
		n++
	}
	return s
}
