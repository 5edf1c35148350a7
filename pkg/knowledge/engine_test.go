package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bwerrors "brandwatch/pkg/errors"
	"brandwatch/pkg/safebrowsing"
	"brandwatch/pkg/search"
)

type stubSearcher struct {
	results []search.Result
	err     error
	queries []string
}

func (s *stubSearcher) TextSearch(_ context.Context, q search.TextQuery) ([]search.Result, error) {
	s.queries = append(s.queries, q.Query)
	return s.results, s.err
}

type stubDetector struct {
	logos map[string][]byte // screenshot -> logo
}

func (d *stubDetector) CropLogo(_ context.Context, screenshot []byte) ([]byte, error) {
	return d.logos[string(screenshot)], nil
}

type stubTrust struct {
	verdicts map[string]safebrowsing.Verdict
}

func (t *stubTrust) LookupURLs(_ context.Context, urls []string, _ ...string) (map[string]safebrowsing.Verdict, error) {
	out := make(map[string]safebrowsing.Verdict, len(urls))
	for _, u := range urls {
		out[u] = t.verdicts[u]
	}
	return out, nil
}

type stubReader struct {
	texts []string
}

func (r *stubReader) DetectText(_ context.Context, _ []byte) ([]string, error) {
	return r.texts, nil
}

type fakeDriver struct {
	screenshots map[string][]byte // url -> screenshot
	current     string
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.current = url
	return nil
}

func (d *fakeDriver) Screenshot(_ context.Context) ([]byte, error) {
	return d.screenshots[d.current], nil
}

func (d *fakeDriver) Title(_ context.Context) (string, error) {
	return "", nil
}

func (d *fakeDriver) ElementScreenshot(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func (d *fakeDriver) Close() error {
	return nil
}

func TestDiscoverDomainProbeAdmitsExactMatch(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{{URL: "https://examplebank.com"}}}
	detector := &stubDetector{logos: map[string][]byte{
		"shot-candidate": []byte("logo-candidate"),
	}}
	drv := &fakeDriver{screenshots: map[string][]byte{
		"https://examplebank.com": []byte("shot-candidate"),
	}}
	engine := NewEngine(searcher, detector, &stubEncoder{}, &stubTrust{})

	res, err := engine.Discover(context.Background(), drv, nil, "examplebank", "com", BranchDomainToBrand)
	require.NoError(t, err)

	assert.Equal(t, "success_domain2brand", res.Status)
	assert.Equal(t, "examplebank.com", res.BrandName)
	assert.Equal(t, []string{"examplebank.com"}, res.Domains)
	require.Len(t, res.Logos, 1)
	assert.NotNil(t, res.Logos[0])
}

func TestDiscoverDomainProbeNoSearchResults(t *testing.T) {
	engine := NewEngine(&stubSearcher{}, &stubDetector{}, &stubEncoder{}, &stubTrust{})

	res, err := engine.Discover(context.Background(), &fakeDriver{}, nil, "examplebank", "com", BranchDomainToBrand)
	require.NoError(t, err)

	assert.Equal(t, "failure_no_result_from_gsearch", res.Status)
	assert.Empty(t, res.Domains)
}

func TestDiscoverDomainProbeRejectsMismatchedDomain(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{{URL: "https://other.com"}}}
	detector := &stubDetector{logos: map[string][]byte{
		"shot-other": []byte("logo-other"),
	}}
	drv := &fakeDriver{screenshots: map[string][]byte{
		"https://other.com": []byte("shot-other"),
	}}
	engine := NewEngine(searcher, detector, &stubEncoder{}, &stubTrust{})

	res, err := engine.Discover(context.Background(), drv, nil, "examplebank", "com", BranchDomainToBrand)
	require.NoError(t, err)

	assert.Equal(t, "failure_doesnt_pass_validation", res.Status)
}

func TestDiscoverDomainProbeRejectsMaliciousCandidate(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{{URL: "https://examplebank.com"}}}
	detector := &stubDetector{logos: map[string][]byte{
		"shot-candidate": []byte("logo-candidate"),
	}}
	drv := &fakeDriver{screenshots: map[string][]byte{
		"https://examplebank.com": []byte("shot-candidate"),
	}}
	trust := &stubTrust{verdicts: map[string]safebrowsing.Verdict{
		"https://examplebank.com": {Malicious: true},
	}}
	engine := NewEngine(searcher, detector, &stubEncoder{}, trust)

	res, err := engine.Discover(context.Background(), drv, nil, "examplebank", "com", BranchDomainToBrand)
	require.NoError(t, err)

	assert.Equal(t, "failure_doesnt_pass_gsb_or_date", res.Status)
}

func TestDiscoverLogoProbeWithoutReferenceLogo(t *testing.T) {
	engine := NewEngine(&stubSearcher{}, &stubDetector{}, &stubEncoder{}, &stubTrust{})

	res, err := engine.Discover(context.Background(), &fakeDriver{}, []byte("shot-no-logo"), "suspicious", "com", BranchLogoToBrand)
	require.NoError(t, err)

	assert.Equal(t, "failure_nologo", res.Status)
	assert.Equal(t, CommentNoReferenceLogo, res.Comment)
}

func TestDiscoverLogoProbeFindsBrandViaOCR(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{{URL: "https://chase.com"}}}
	detector := &stubDetector{logos: map[string][]byte{
		"shot-page":  []byte("logo-ref"),
		"shot-chase": []byte("logo-chase"),
	}}
	encoder := &stubEncoder{feats: map[string][]float64{
		"logo-ref":   {1, 0},
		"logo-chase": {1, 0},
	}}
	drv := &fakeDriver{screenshots: map[string][]byte{
		"https://chase.com": []byte("shot-chase"),
	}}
	engine := NewEngine(searcher, detector, encoder, &stubTrust{},
		WithOCR(&stubReader{texts: []string{"Chase"}}))

	res, err := engine.Discover(context.Background(), drv, []byte("shot-page"), "suspicious", "top", BranchLogoToBrand)
	require.NoError(t, err)

	assert.Equal(t, "success_logo2brand", res.Status)
	assert.Equal(t, "Chase", res.BrandName)
	assert.Equal(t, []string{"chase.com"}, res.Domains)
	assert.Equal(t, []string{"chase"}, searcher.queries)
}

func TestDiscoverLogoProbeEmptyOCR(t *testing.T) {
	detector := &stubDetector{logos: map[string][]byte{
		"shot-page": []byte("logo-ref"),
	}}
	engine := NewEngine(&stubSearcher{}, detector, &stubEncoder{}, &stubTrust{},
		WithOCR(&stubReader{}))

	res, err := engine.Discover(context.Background(), &fakeDriver{}, []byte("shot-page"), "suspicious", "com", BranchLogoToBrand)
	require.NoError(t, err)

	assert.Equal(t, "failure_no_result_from_OCR", res.Status)
}

func TestDiscoverLogoProbeShortOCRText(t *testing.T) {
	detector := &stubDetector{logos: map[string][]byte{
		"shot-page": []byte("logo-ref"),
	}}
	engine := NewEngine(&stubSearcher{}, detector, &stubEncoder{}, &stubTrust{},
		WithOCR(&stubReader{texts: []string{"X"}}))

	res, err := engine.Discover(context.Background(), &fakeDriver{}, []byte("shot-page"), "suspicious", "com", BranchLogoToBrand)
	require.NoError(t, err)

	assert.Equal(t, "failure_text_too_short_from_OCR", res.Status)
}

func TestDiscoverRejectsHostingLikeBrandName(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{{URL: "https://besthost.com"}}}
	detector := &stubDetector{logos: map[string][]byte{
		"shot-page": []byte("logo-ref"),
		"shot-best": []byte("logo-best"),
	}}
	encoder := &stubEncoder{feats: map[string][]float64{
		"logo-ref":  {1, 0},
		"logo-best": {1, 0},
	}}
	drv := &fakeDriver{screenshots: map[string][]byte{
		"https://besthost.com": []byte("shot-best"),
	}}
	engine := NewEngine(searcher, detector, encoder, &stubTrust{},
		WithOCR(&stubReader{texts: []string{"BestHost"}}))

	res, err := engine.Discover(context.Background(), drv, []byte("shot-page"), "suspicious", "com", BranchLogoToBrand)
	require.NoError(t, err)

	assert.Contains(t, res.Status, "failure_")
	assert.Empty(t, res.Logos)
}

func TestDiscoverPropagatesQuotaExhaustion(t *testing.T) {
	searcher := &stubSearcher{err: bwerrors.ErrQuotaExceeded}
	engine := NewEngine(searcher, &stubDetector{}, &stubEncoder{}, &stubTrust{})

	_, err := engine.Discover(context.Background(), &fakeDriver{}, nil, "examplebank", "com", BranchDomainToBrand)
	assert.ErrorIs(t, err, bwerrors.ErrQuotaExceeded)
}
