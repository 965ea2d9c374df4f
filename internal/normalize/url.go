// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// TrackingKeys are query parameters that never identify an item.
var TrackingKeys = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"gclid":        true,
	"fbclid":       true,
	"msclkid":      true,
	"yclid":        true,
	"mc_eid":       true,
	"mc_cid":       true,
	"igshid":       true,
	"spm":          true,
	"ref":          true,
	"affid":        true,
	"affidname":    true,
}

// TrackingPrefixes drop any parameter whose lower-cased key starts with them.
var TrackingPrefixes = []string{"utm", "ga_", "icid", "mkt_"}

var multiSlash = regexp.MustCompile(`/{2,}`)

// CanonicalURL is a cleaned item URL and the scheme-less identity key
// derived from it.
type CanonicalURL struct {
	URL    string
	Key    string
	Domain string
}

// Canonicalize cleans a raw item URL: tracking parameters, fragment and
// default port are removed, the host is lower-cased, repeated slashes are
// collapsed and the remaining parameters are de-duplicated and sorted.
// Relative URLs are unusable and return ok=false.
func Canonicalize(raw string) (CanonicalURL, bool) {
	abs := absolute(raw)
	if abs == "" {
		return CanonicalURL{}, false
	}
	u, err := url.Parse(abs)
	if err != nil {
		return CanonicalURL{}, false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return CanonicalURL{}, false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || (!strings.Contains(host, ".") && host != "localhost") {
		return CanonicalURL{}, false
	}
	port := u.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}
	hostport := host
	if port != "" {
		hostport = net.JoinHostPort(host, port)
	}

	path := multiSlash.ReplaceAllString(u.EscapedPath(), "/")
	if path == "" {
		path = "/"
	}
	if path != "/" {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}

	query := cleanQuery(u.RawQuery)

	clean := scheme + "://" + hostport + path
	if query != "" {
		clean += "?" + query
	}

	domain := strings.TrimPrefix(host, "www.")
	keyHost := strings.TrimPrefix(hostport, "www.")
	key := keyHost + strings.TrimSuffix(path, "/")
	if query != "" {
		key += "?" + query
	}
	return CanonicalURL{URL: clean, Key: key, Domain: domain}, true
}

// absolute fixes up scheme-less absolute forms ("//host/p", "www.host/p",
// "host.com/p") and rejects relative paths.
func absolute(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return s
	case strings.HasPrefix(s, "//"):
		return "https:" + s
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "."), strings.HasPrefix(s, "?"), strings.HasPrefix(s, "#"):
		return ""
	case strings.Contains(s, "://"):
		return s
	}
	first := s
	if i := strings.IndexAny(first, "/?#"); i >= 0 {
		first = first[:i]
	}
	if !strings.Contains(first, ".") || strings.ContainsAny(first, " \t") {
		return ""
	}
	return "https://" + s
}

type param struct{ key, value string }

func cleanQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}

	var params []param
	seen := make(map[param]bool)
	for k, vs := range values {
		lk := strings.ToLower(k)
		if isTracking(lk) {
			continue
		}
		for _, v := range vs {
			if v == "" {
				continue
			}
			p := param{key: k, value: v}
			sig := param{key: lk, value: v}
			if seen[sig] {
				continue
			}
			seen[sig] = true
			params = append(params, p)
		}
	}
	sort.Slice(params, func(i, j int) bool {
		ki, kj := strings.ToLower(params[i].key), strings.ToLower(params[j].key)
		if ki != kj {
			return ki < kj
		}
		return params[i].value < params[j].value
	})

	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

func isTracking(key string) bool {
	if TrackingKeys[key] {
		return true
	}
	for _, p := range TrackingPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// DomainOf returns the lower-cased host of rawURL without a "www." prefix.
func DomainOf(rawURL string) string {
	c, ok := Canonicalize(rawURL)
	if !ok {
		return ""
	}
	return c.Domain
}
