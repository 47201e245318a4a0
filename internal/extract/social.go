package extract

import (
	"net/url"
	"strings"
)

// SocialHandle returns the account handle a social link points at, or "".
// Profile links carry it as /in/<handle>; shared post links as
// /posts/<handle>_<slug>.
func SocialHandle(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		next := segments[i+1]
		switch strings.ToLower(segments[i]) {
		case "in":
			return next
		case "posts":
			if idx := strings.Index(next, "_"); idx > 0 {
				return next[:idx]
			}
			return ""
		}
	}
	return ""
}
