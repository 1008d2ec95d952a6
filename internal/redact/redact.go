package redact

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

var (
	authHeaderRe   = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*bearer\s+)([A-Za-z0-9._\-+/=]+)`)
	bearerRe       = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._\-+/=]+)`)
	googleKeyRe    = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`)
	apiKeyValueRe  = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([A-Za-z0-9._\-+/=]+)`)
	headerKeyRe    = regexp.MustCompile(`(?i)(x-goog-api-key\s*[:=]\s*)([A-Za-z0-9._\-+/=]+)`)
	tokenishKeyRe  = regexp.MustCompile(`(?i)\b(key|token)\s*[:=]\s*([A-Za-z0-9._\-+/=]{6,})`)
	urlRe          = regexp.MustCompile(`https?://[^\s"'<>]+`)
)

// String redacts known secret patterns from free-form strings.
func String(s string) string {
	if s == "" {
		return s
	}

	out := s
	out = urlRe.ReplaceAllStringFunc(out, redactURL)
	out = authHeaderRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = bearerRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = googleKeyRe.ReplaceAllString(out, "[REDACTED]")
	out = headerKeyRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyValueRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = tokenishKeyRe.ReplaceAllStringFunc(out, func(s string) string {
		if strings.Contains(s, "[REDACTED]") {
			return s
		}
		matches := tokenishKeyRe.FindStringSubmatch(s)
		if len(matches) < 3 {
			return s
		}
		return matches[1] + "=[REDACTED]"
	})
	for strings.Contains(out, "[REDACTED][REDACTED]") {
		out = strings.ReplaceAll(out, "[REDACTED][REDACTED]", "[REDACTED]")
	}
	return out
}

// Any formats the value with %+v and redacts secrets.
func Any(v any) string {
	return String(fmt.Sprintf("%+v", v))
}

// Sprintf formats like fmt.Sprintf and redacts the result.
func Sprintf(format string, args ...interface{}) string {
	return String(fmt.Sprintf(format, args...))
}

// Err returns a redacted "error" attribute for slog.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", String(err.Error()))
}

// redactURL drops query strings and fragments, which is where API keys end up.
func redactURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "[REDACTED_URL]"
	}
	if u.RawQuery == "" && u.Fragment == "" {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String() + "?[REDACTED]"
}
