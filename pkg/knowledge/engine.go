package knowledge

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"brandwatch/pkg/browser"
	bwerrors "brandwatch/pkg/errors"
	"brandwatch/pkg/search"
	"brandwatch/pkg/urlutil"
)

// Config tunes the discovery engine.
type Config struct {
	// DomainProbeResults caps candidates for the domain-probe branch.
	DomainProbeResults int
	// LogoProbeResults caps candidates for the logo-probe branch.
	LogoProbeResults int
	// SimilarityThreshold is the relaxed embedding-similarity cutoff for
	// logo matching.
	SimilarityThreshold float64
	// MinAge is the freshness gate applied to dated candidates.
	MinAge time.Duration
}

// DefaultConfig matches the field-study operating point.
func DefaultConfig() Config {
	return Config{
		DomainProbeResults:  2,
		LogoProbeResults:    3,
		SimilarityThreshold: 0.83,
		MinAge:              MinCandidateAge,
	}
}

// Engine coordinates the discovery strategies against the external
// collaborators: search, vision, trust, and the page-fetch browser session.
type Engine struct {
	search   SearchProvider
	ocr      TextReader
	labeler  BrandLabeler
	detector LogoDetector
	encoder  LogoEncoder
	trust    TrustChecker
	cfg      Config

	now func() time.Time
}

type OptFunc func(*Engine)

// WithOCR sets the optical text collaborator used by the logo probe.
func WithOCR(r TextReader) OptFunc {
	return func(e *Engine) {
		e.ocr = r
	}
}

// WithLabeler sets the generic logo-label collaborator.
func WithLabeler(l BrandLabeler) OptFunc {
	return func(e *Engine) {
		e.labeler = l
	}
}

// WithConfig overrides the engine tuning.
func WithConfig(cfg Config) OptFunc {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithClock overrides the freshness clock, mainly for tests.
func WithClock(now func() time.Time) OptFunc {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(searcher SearchProvider, detector LogoDetector, encoder LogoEncoder, trust TrustChecker, opts ...OptFunc) *Engine {
	e := &Engine{
		search:   searcher,
		detector: detector,
		encoder:  encoder,
		trust:    trust,
		cfg:      DefaultConfig(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CropReferenceLogo extracts the logo from the page-under-evaluation's
// screenshot. A nil screenshot or a failed crop yields a nil logo; absence
// of evidence, not a pipeline failure.
func (e *Engine) CropReferenceLogo(ctx context.Context, screenshot []byte) []byte {
	if screenshot == nil {
		return nil
	}
	logo, err := e.detector.CropLogo(ctx, screenshot)
	if err != nil {
		log.Warnf("discovery: crop reference logo: %v", err)
		return nil
	}
	return logo
}

// Discover runs the selected branch against the query page and returns the
// validated knowledge. A quota-exceeded search error propagates; every other
// collaborator failure degrades to an empty result with a failure comment.
func (e *Engine) Discover(ctx context.Context, drv browser.Driver, screenshot []byte, domain, tld string, branch Branch) (*Result, error) {
	start := e.now()

	refLogo := e.CropReferenceLogo(ctx, screenshot)
	q := Query{Domain: domain, TLD: tld, ReferenceLogo: refLogo}

	if branch == BranchLogoToBrand && refLogo == nil {
		return &Result{
			Branch:  branch,
			Comment: CommentNoReferenceLogo,
			Status:  "failure_" + CommentNoReferenceLogo,
			Elapsed: e.now().Sub(start),
		}, nil
	}

	var strategy DiscoveryStrategy
	switch branch {
	case BranchDomainToBrand:
		strategy = &DomainProbe{engine: e}
	case BranchLogoToBrand:
		strategy = &LogoProbe{engine: e}
	default:
		return nil, bwerrors.NewConfigError("branch", branch, "unknown discovery branch")
	}

	res, err := strategy.Discover(ctx, drv, q)
	if err != nil {
		return nil, err
	}

	// The OCR branch can come back with a near-empty brand name and no
	// logos; retry once with the generic logo-label strategy.
	if branch == BranchLogoToBrand && len(res.BrandName) <= 3 && countLogos(res.Logos) == 0 && e.labeler != nil {
		label := &LabelProbe{engine: e}
		if labelRes, labelErr := label.Discover(ctx, drv, q); labelErr != nil {
			return nil, labelErr
		} else {
			res = labelRes
		}
	}

	res.Branch = branch
	res.Elapsed = e.now().Sub(start)
	e.finalize(res, branch)
	return res, nil
}

// finalize assigns the brand name and the success/failure status.
func (e *Engine) finalize(res *Result, branch Branch) {
	if branch == BranchDomainToBrand && len(res.Domains) > 0 {
		res.BrandName = res.Domains[0]
	}

	if res.Found() && !strings.Contains(strings.ToLower(res.BrandName), "host") {
		res.Status = "success_" + branch.String()
		return
	}

	if len(res.Domains) > 0 && res.BrandName == "" {
		res.BrandName = res.Domains[0]
	}
	res.Logos = nil
	res.Status = "failure_" + res.Comment
}

// gather reduces search hits to unique registrable domains (first-seen
// order) and crops a logo from each surviving page.
func (e *Engine) gather(ctx context.Context, drv browser.Driver, results []search.Result) []Candidate {
	var cands []Candidate
	seen := make(map[string]bool, len(results))

	for _, r := range results {
		reduced, parts, ok := reduceURL(r.URL)
		if !ok || seen[reduced] {
			continue
		}
		seen[reduced] = true

		cands = append(cands, Candidate{
			URL:     reduced,
			Domain:  parts.Domain,
			TLD:     parts.TLD,
			Logo:    e.fetchLogo(ctx, drv, reduced),
			PubDate: r.PubDate,
		})
	}

	return cands
}

// fetchLogo navigates to a knowledge site and crops its logo. Every failure
// is degraded to a nil logo.
func (e *Engine) fetchLogo(ctx context.Context, drv browser.Driver, pageURL string) []byte {
	if drv == nil {
		return nil
	}
	if err := drv.Navigate(ctx, pageURL); err != nil {
		log.Debugf("discovery: navigate %s: %v", pageURL, err)
		return nil
	}
	shot, err := drv.Screenshot(ctx)
	if err != nil {
		log.Debugf("discovery: screenshot %s: %v", pageURL, err)
		return nil
	}
	logo, err := e.detector.CropLogo(ctx, shot)
	if err != nil {
		log.Debugf("discovery: crop logo %s: %v", pageURL, err)
		return nil
	}
	return logo
}

// exactMatchFunc re-checks a candidate logo's own brand text against the
// queried brand text, as a last-resort validation fallback.
type exactMatchFunc func(ctx context.Context, logo []byte) bool

// vet applies validation and the trust/freshness gate, returning the
// surviving candidates and the failure comment when none survive a stage.
func (e *Engine) vet(ctx context.Context, q Query, cands []Candidate, exact exactMatchFunc) ([]Candidate, string) {
	if len(cands) == 0 {
		return nil, CommentNoSearchResults
	}

	comment := ""
	if countCandidateLogos(cands) == 0 {
		comment = CommentCannotCropLogo
	}

	domainIdx := DomainMatches(cands, q.Domain, q.TLD)
	logoIdx := LogoMatches(ctx, e.encoder, q.ReferenceLogo, cands, e.cfg.SimilarityThreshold)
	matchedIdx := unionIndices(domainIdx, logoIdx)

	if len(matchedIdx) == 0 && exact != nil {
		for i, c := range cands {
			if c.Logo != nil && exact(ctx, c.Logo) {
				matchedIdx = append(matchedIdx, i)
			}
		}
	}

	matched := make([]Candidate, 0, len(matchedIdx))
	for _, i := range matchedIdx {
		matched = append(matched, cands[i])
	}
	if len(matched) == 0 {
		return nil, CommentFailsValidation
	}

	urls := make([]string, 0, len(matched))
	for _, c := range matched {
		urls = append(urls, c.URL)
	}
	verdicts, err := e.trust.LookupURLs(ctx, urls)
	if err != nil {
		log.Warnf("discovery: trust lookup: %v", err)
	}

	kept := FilterTrusted(matched, verdicts, e.now(), e.cfg.MinAge)
	if len(kept) == 0 {
		return nil, CommentFailsTrustOrAge
	}

	if countCandidateLogos(kept) == 0 {
		comment = CommentCannotCropLogo
	}
	return kept, comment
}

// textSearch runs a search, propagating only quota exhaustion.
func (e *Engine) textSearch(ctx context.Context, q search.TextQuery) ([]search.Result, error) {
	results, err := e.search.TextSearch(ctx, q)
	if err != nil {
		if errors.Is(err, bwerrors.ErrQuotaExceeded) {
			return nil, err
		}
		log.Warnf("discovery: search %q: %v", q.Query, err)
		return nil, nil
	}
	return results, nil
}

func reduceURL(raw string) (string, urlutil.Parts, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", urlutil.Parts{}, false
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	parts := urlutil.Split(u.Hostname())
	return scheme + "://" + parts.Registrable(), parts, true
}

func resultOf(cands []Candidate, comment string) *Result {
	res := &Result{Comment: comment}
	for _, c := range cands {
		res.Domains = append(res.Domains, c.Registrable())
		res.Logos = append(res.Logos, c.Logo)
	}
	return res
}

func countLogos(logos [][]byte) int {
	n := 0
	for _, l := range logos {
		if l != nil {
			n++
		}
	}
	return n
}

func countCandidateLogos(cands []Candidate) int {
	n := 0
	for _, c := range cands {
		if c.Logo != nil {
			n++
		}
	}
	return n
}
