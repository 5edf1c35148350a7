// Package urlutil provides registrable-domain reduction and query
// normalization for the knowledge discovery pipeline.
package urlutil

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Parts holds the registrable pieces of a host name: the domain label and
// its public suffix (e.g. mail.bank.co.uk -> {bank, co.uk}).
type Parts struct {
	Domain string
	TLD    string
}

// Registrable returns domain.tld, or just the domain when no public suffix
// is known.
func (p Parts) Registrable() string {
	if p.TLD == "" {
		return p.Domain
	}
	return p.Domain + "." + p.TLD
}

var ipLiteralRe = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+\.[0-9]+$`)

// IsIPLiteral reports whether s is a bare dotted-quad IP literal. IP hosts
// are never considered legitimate brand domains.
func IsIPLiteral(s string) bool {
	return ipLiteralRe.MatchString(s)
}

// Split breaks a host name into its registrable domain and public suffix.
// Hosts without a recognized suffix (IP literals, bare names) keep the whole
// host in Domain with an empty TLD.
func Split(host string) Parts {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || IsIPLiteral(host) {
		return Parts{Domain: host}
	}

	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann && !strings.Contains(suffix, ".") && suffix == host {
		// single-label host with no known suffix
		return Parts{Domain: host}
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return Parts{Domain: host}
	}

	domain := strings.TrimSuffix(etld1, "."+suffix)
	return Parts{Domain: domain, TLD: suffix}
}

// FromURL extracts the registrable parts of a URL's host. Malformed URLs
// yield empty parts.
func FromURL(raw string) Parts {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		// maybe a bare host was passed
		if err == nil && u.Host == "" && !strings.Contains(raw, "/") {
			return Split(raw)
		}
		return Parts{}
	}
	return Split(u.Hostname())
}

// ReduceToMainDomains reduces every URL to scheme://registrable-domain,
// removing duplicates while preserving first-seen order. The operation is
// idempotent: re-reducing the output yields the same list.
func ReduceToMainDomains(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))

	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		scheme := u.Scheme
		if scheme == "" {
			scheme = "https"
		}
		host := u.Hostname()
		if host == "" {
			continue
		}

		reduced := scheme + "://" + Split(host).Registrable()
		if !seen[reduced] {
			seen[reduced] = true
			out = append(out, reduced)
		}
	}

	return out
}
