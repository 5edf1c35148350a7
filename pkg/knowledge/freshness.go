package knowledge

import (
	"time"

	"brandwatch/pkg/safebrowsing"
)

// MinCandidateAge is the freshness gate: a discovered source must have been
// alive for at least this long before it is trusted.
const MinCandidateAge = 90 * 24 * time.Hour

// FilterTrusted applies the trust and freshness gates. A candidate survives
// only if the blocklist verdict is non-malicious AND its publication date is
// either unknown or at least minAge before now. Unknown dates pass through:
// losing genuine knowledge over missing metadata costs more than the
// occasional young admit.
func FilterTrusted(cands []Candidate, verdicts map[string]safebrowsing.Verdict, now time.Time, minAge time.Duration) []Candidate {
	var kept []Candidate
	for _, c := range cands {
		if verdicts[c.URL].Malicious {
			continue
		}
		if c.PubDate != nil && now.Sub(*c.PubDate) < minAge {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
