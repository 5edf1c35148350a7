package knowledge

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEncoder maps logo bytes to fixed embeddings.
type stubEncoder struct {
	feats map[string][]float64
	fail  map[string]bool
}

func (e *stubEncoder) Encode(_ context.Context, image []byte) ([]float64, error) {
	if e.fail[string(image)] {
		return nil, fmt.Errorf("encode failed")
	}
	feat, ok := e.feats[string(image)]
	if !ok {
		return nil, fmt.Errorf("unknown image")
	}
	return feat, nil
}

func TestDomainMatches(t *testing.T) {
	cands := []Candidate{
		{URL: "https://examplebank.com", Domain: "examplebank", TLD: "com"},
		{URL: "https://examplebank.net", Domain: "examplebank", TLD: "net"},
		{URL: "https://other.com", Domain: "other", TLD: "com"},
		{URL: "http://1.2.3.4", Domain: "1.2.3.4", TLD: ""},
	}

	matched := DomainMatches(cands, "examplebank", "com")
	assert.Equal(t, []int{0}, matched)
}

func TestDomainMatchesExactReferenceAlwaysIn(t *testing.T) {
	cands := []Candidate{{URL: "https://chase.com", Domain: "chase", TLD: "com"}}
	assert.Equal(t, []int{0}, DomainMatches(cands, "chase", "com"))
}

func TestDomainMatchesNeverMatchesIPLiteral(t *testing.T) {
	// Even a reference that is itself the same dotted quad never matches.
	cands := []Candidate{{URL: "http://1.2.3.4", Domain: "1.2.3.4", TLD: ""}}
	assert.Empty(t, DomainMatches(cands, "1.2.3.4", ""))
}

func TestLogoMatchesMonotonicInThreshold(t *testing.T) {
	encoder := &stubEncoder{feats: map[string][]float64{
		"ref": {1, 0},
		"a":   {1, 0},        // similarity 1.0
		"b":   {0.9, 0.4359}, // similarity 0.9
		"c":   {0.5, 0.8660}, // similarity 0.5
	}}
	cands := []Candidate{
		{URL: "https://a.com", Domain: "a", TLD: "com", Logo: []byte("a")},
		{URL: "https://b.com", Domain: "b", TLD: "com", Logo: []byte("b")},
		{URL: "https://c.com", Domain: "c", TLD: "com", Logo: []byte("c")},
	}

	prev := len(LogoMatches(context.Background(), encoder, []byte("ref"), cands, 0.0))
	for _, threshold := range []float64{0.4, 0.83, 0.95, 1.01} {
		n := len(LogoMatches(context.Background(), encoder, []byte("ref"), cands, threshold))
		assert.LessOrEqual(t, n, prev, "raising the threshold added matches at %v", threshold)
		prev = n
	}
}

func TestLogoMatchesSkipsNilLogosAndIPs(t *testing.T) {
	encoder := &stubEncoder{feats: map[string][]float64{
		"ref":  {1, 0},
		"good": {1, 0},
	}}
	cands := []Candidate{
		{URL: "https://a.com", Domain: "a", TLD: "com"}, // no logo
		{URL: "http://1.2.3.4", Domain: "1.2.3.4", Logo: []byte("good")},
		{URL: "https://b.com", Domain: "b", TLD: "com", Logo: []byte("good")},
	}

	matched := LogoMatches(context.Background(), encoder, []byte("ref"), cands, 0.83)
	assert.Equal(t, []int{2}, matched)
}

func TestLogoMatchesWithoutReferenceLogo(t *testing.T) {
	encoder := &stubEncoder{}
	cands := []Candidate{{URL: "https://a.com", Domain: "a", TLD: "com", Logo: []byte("x")}}
	assert.Nil(t, LogoMatches(context.Background(), encoder, nil, cands, 0.83))
}

func TestLogoMatchesEncodeFailureDropsCandidate(t *testing.T) {
	encoder := &stubEncoder{
		feats: map[string][]float64{"ref": {1, 0}, "ok": {1, 0}},
		fail:  map[string]bool{"bad": true},
	}
	cands := []Candidate{
		{URL: "https://bad.com", Domain: "bad", TLD: "com", Logo: []byte("bad")},
		{URL: "https://ok.com", Domain: "ok", TLD: "com", Logo: []byte("ok")},
	}

	matched := LogoMatches(context.Background(), encoder, []byte("ref"), cands, 0.83)
	require.Equal(t, []int{1}, matched)
}

func TestInnerProduct(t *testing.T) {
	assert.InDelta(t, 1.0, InnerProduct([]float64{1, 0}, []float64{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, InnerProduct([]float64{1, 0}, []float64{0, 1}), 1e-9)
}

func TestUnionIndices(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 5}, unionIndices([]int{5, 0}, []int{1, 2, 0}))
	assert.Empty(t, unionIndices(nil, nil))
}
