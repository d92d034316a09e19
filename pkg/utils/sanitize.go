package utils

import (
	"strings"
	"unicode/utf8"
)

// EscapeSQLWildcards escapes SQL LIKE wildcard characters so user input matches literally.
// Queries using the result must declare ESCAPE '\'.
func EscapeSQLWildcards(input string) string {
	// Escape backslash first (as it's the escape character)
	input = strings.ReplaceAll(input, "\\", "\\\\")
	input = strings.ReplaceAll(input, "%", "\\%")
	input = strings.ReplaceAll(input, "_", "\\_")
	return input
}

// SanitizeSearchQuery prepares a case-insensitive substring pattern for LIKE.
// Returns "" when the trimmed input is empty.
func SanitizeSearchQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	// Limit length to prevent DoS
	input = TruncateString(input, 100)
	return "%" + EscapeSQLWildcards(strings.ToLower(input)) + "%"
}

// TruncateString truncates s to at most maxLen runes
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
