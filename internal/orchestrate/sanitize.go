// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/sourcing-engine/internal/adapter"
)

// maxDetail is the longest error detail reported in a status.
const maxDetail = 120

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s"'<>]+`)
	secretPattern = regexp.MustCompile(`(?i)\b(api[_-]?key|apikey|access[_-]?token|token|secret|password|key)=([^&\s"']+)`)
	bearerPattern = regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9._~+/=-]+`)
)

// Sanitize turns an adapter error into a short message safe to show a
// caller: URLs lose everything past the host, credentials are redacted,
// throttling and quota responses get fixed wording, and the result is
// truncated.
func Sanitize(err error) string {
	if err == nil {
		return ""
	}
	var se *adapter.StatusError
	if errors.As(err, &se) {
		return statusDetail(se.Code)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "429") || strings.Contains(lower, "too many requests"):
		return statusDetail(http.StatusTooManyRequests)
	case strings.Contains(lower, "402") || strings.Contains(lower, "quota"):
		return statusDetail(http.StatusPaymentRequired)
	}

	msg = urlPattern.ReplaceAllStringFunc(msg, hostOnly)
	msg = secretPattern.ReplaceAllString(msg, "$1=[REDACTED]")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer [REDACTED]")
	msg = strings.Join(strings.Fields(msg), " ")
	return truncate(msg, maxDetail)
}

func statusDetail(code int) string {
	switch code {
	case http.StatusTooManyRequests:
		return "rate limited"
	case http.StatusPaymentRequired:
		return "quota exhausted"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "authentication failed"
	}
	return fmt.Sprintf("provider returned HTTP %d", code)
}

// hostOnly reduces a URL to scheme and host.
func hostOnly(u string) string {
	rest := u[strings.Index(u, "://")+3:]
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	return u[:strings.Index(u, "://")+3] + rest
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
