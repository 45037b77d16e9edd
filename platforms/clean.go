package platforms

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

var (
	htmlTagRe = regexp.MustCompile(`<[^>]*?>`)
	urlRe     = regexp.MustCompile(`http[s]?://\S+`)
	userRefRe = regexp.MustCompile(`@\w+(\.\w+)?`)
	nbspRe    = regexp.MustCompile(`&nbsp;`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// cleanString strips a field of HTML tags, URLs, raw JSON blobs and user
// references, and collapses whitespace. Platform fields are frequently rich
// text; the summarizer and the rendered changelog both want plain prose.
func cleanString(s string) string {
	if s == "" {
		return ""
	}
	s = htmlTagRe.ReplaceAllString(s, "")
	s = urlRe.ReplaceAllString(s, "")
	s = userRefRe.ReplaceAllString(s, "")

	// A field that parses as JSON is machine data, not prose.
	if json.Valid([]byte(strings.TrimSpace(s))) && strings.TrimSpace(s) != "" {
		return ""
	}

	s = nbspRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// formatDate converts a platform timestamp to "02-01-2006 15:04". Unparsable
// input is returned unchanged.
func formatDate(raw string) string {
	for _, layout := range []string{"2006-01-02T15:04:05.999999999Z", "2006-01-02T15:04:05Z", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02-01-2006 15:04")
		}
	}
	return raw
}

// cleanName turns "first.last" style account names into "First Last".
func cleanName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return name
	}
	return capitalize(parts[0]) + " " + capitalize(parts[1])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
