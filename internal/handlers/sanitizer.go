package handlers

import (
	"regexp"
	"strings"
)

// Dangerous patterns stripped from message bodies before they reach the store.
// Event handlers only match inside an opening tag, so prose like "online= yes" survives.
var (
	scriptTagRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	onEventRegex   = regexp.MustCompile(`(?i)(<[a-z][^>]*?)\s+on\w+\s*=`)
	controlRegex   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

// SanitizeMessageBody removes script tags, inline event handlers and control
// characters. Emptiness and length are checked by the engine afterwards.
func SanitizeMessageBody(body string) string {
	body = scriptTagRegex.ReplaceAllString(body, "")
	// one handler per tag is removed per pass
	for onEventRegex.MatchString(body) {
		body = onEventRegex.ReplaceAllString(body, "$1 ")
	}
	body = controlRegex.ReplaceAllString(body, "")
	return strings.TrimSpace(body)
}
