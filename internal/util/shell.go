// Package util provides small helpers shared across meshmap packages.
package util

import "strings"

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
// This is safe for use in shell commands where the string should be treated literally.
func ShellQuote(s string) string {
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// ShellArg returns s unchanged when it only holds characters that are
// inert in a POSIX shell (letters, digits, and . - _ : /), otherwise
// ShellQuote(s). Keeps simple remote commands readable in debug logs.
func ShellArg(s string) string {
	if s == "" {
		return "''"
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_', r == ':', r == '/':
		default:
			return ShellQuote(s)
		}
	}
	return s
}
