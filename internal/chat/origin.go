package chat

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// originAllowed reports whether the widget page at the request's Origin
// may open a session. Patterns are globs over the origin host
// ("*.example.com", "localhost:*") or, when they contain "://", over the
// full origin ("https://*.example.com"). Without patterns only same-host
// pages are allowed. Requests without an Origin header are not from a
// browser and are allowed.
func originAllowed(r *http.Request, patterns []string, allowAll bool) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || allowAll {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	if len(patterns) == 0 {
		return strings.EqualFold(u.Host, r.Host)
	}

	host := strings.ToLower(u.Host)
	full := strings.ToLower(u.Scheme + "://" + u.Host)
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSuffix(p, "/"))
		subject := host
		if strings.Contains(p, "://") {
			subject = full
		}
		if ok, err := doublestar.Match(p, subject); err == nil && ok {
			return true
		}
	}
	return false
}
