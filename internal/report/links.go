package report

import (
	"net/url"
	"sort"
	"strings"
)

// NormalizeProfileURL canonicalizes a profile link so the same profile
// compares equal across sources.
func NormalizeProfileURL(raw string) string {
	orig := strings.TrimSpace(raw)
	if orig == "" {
		return ""
	}
	raw = orig
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return orig
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}

	if strings.Contains(u.Host, "linkedin.com") {
		q = url.Values{}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// TwitterURL turns "@handle", "handle" or a full URL into a profile URL.
func TwitterURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "/") || strings.Contains(raw, ".") {
		return NormalizeProfileURL(raw)
	}
	return "https://x.com/" + strings.TrimPrefix(raw, "@")
}
