package knowledge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"brandwatch/pkg/safebrowsing"
)

func TestFilterTrusted(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	age := func(days int) *time.Time {
		d := now.Add(-time.Duration(days) * 24 * time.Hour)
		return &d
	}

	tests := []struct {
		name     string
		cand     Candidate
		verdicts map[string]safebrowsing.Verdict
		kept     bool
	}{
		{
			name: "unknown date passes",
			cand: Candidate{URL: "https://a.com"},
			kept: true,
		},
		{
			name: "89 days is too young",
			cand: Candidate{URL: "https://a.com", PubDate: age(89)},
			kept: false,
		},
		{
			name: "exactly 90 days passes",
			cand: Candidate{URL: "https://a.com", PubDate: age(90)},
			kept: true,
		},
		{
			name: "old candidate passes",
			cand: Candidate{URL: "https://a.com", PubDate: age(400)},
			kept: true,
		},
		{
			name:     "malicious excluded regardless of age",
			cand:     Candidate{URL: "https://a.com", PubDate: age(400)},
			verdicts: map[string]safebrowsing.Verdict{"https://a.com": {Malicious: true}},
			kept:     false,
		},
		{
			name:     "malicious excluded even with unknown date",
			cand:     Candidate{URL: "https://a.com"},
			verdicts: map[string]safebrowsing.Verdict{"https://a.com": {Malicious: true}},
			kept:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := FilterTrusted([]Candidate{tt.cand}, tt.verdicts, now, MinCandidateAge)
			if tt.kept {
				assert.Len(t, kept, 1)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}
