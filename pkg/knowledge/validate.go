package knowledge

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"

	"brandwatch/pkg/urlutil"
)

// DomainMatches returns the indices of candidates whose domain and TLD
// exactly equal the reference. Candidates whose domain is a bare dotted-quad
// IP literal are never matched: an IP is not a brand domain.
func DomainMatches(cands []Candidate, refDomain, refTLD string) []int {
	var matched []int
	for i, c := range cands {
		if urlutil.IsIPLiteral(c.Domain) {
			continue
		}
		if c.Domain == refDomain && c.TLD == refTLD {
			matched = append(matched, i)
		}
	}
	return matched
}

// LogoMatches returns the indices of candidates whose logo embedding is at
// least threshold similar to the reference logo. Computed only when a
// reference logo is available; candidates without a logo, or with an IP
// literal for a domain, are skipped. Encoding failures drop just that
// candidate.
func LogoMatches(ctx context.Context, encoder LogoEncoder, refLogo []byte, cands []Candidate, threshold float64) []int {
	if refLogo == nil {
		return nil
	}

	refFeat, err := encoder.Encode(ctx, refLogo)
	if err != nil {
		log.Warnf("validate: encode reference logo: %v", err)
		return nil
	}

	var matched []int
	for i, c := range cands {
		if c.Logo == nil || urlutil.IsIPLiteral(c.Domain) {
			continue
		}
		feat, err := encoder.Encode(ctx, c.Logo)
		if err != nil {
			log.Warnf("validate: encode candidate logo %s: %v", c.URL, err)
			continue
		}
		if InnerProduct(refFeat, feat) >= threshold {
			matched = append(matched, i)
		}
	}
	return matched
}

// InnerProduct is the similarity of two L2-normalized embeddings.
func InnerProduct(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// unionIndices merges two index sets preserving ascending order.
func unionIndices(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	for _, i := range a {
		seen[i] = true
	}
	for _, i := range b {
		seen[i] = true
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
