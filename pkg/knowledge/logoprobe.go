package knowledge

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"brandwatch/pkg/browser"
	"brandwatch/pkg/search"
	"brandwatch/pkg/urlutil"
)

// LogoProbe discovers a brand by reading the text off the page's logo and
// searching for it. The raw OCR output is cleaned before it becomes a
// search query; see urlutil.CleanQuery.
type LogoProbe struct {
	engine *Engine
}

func (s *LogoProbe) Branch() Branch {
	return BranchLogoToBrand
}

func (s *LogoProbe) Discover(ctx context.Context, drv browser.Driver, q Query) (*Result, error) {
	e := s.engine

	if e.ocr == nil {
		return &Result{Comment: CommentNoOCRText}, nil
	}
	texts, err := e.ocr.DetectText(ctx, q.ReferenceLogo)
	if err != nil {
		log.Warnf("discovery: ocr reference logo: %v", err)
		return &Result{Comment: CommentNoOCRText}, nil
	}
	if len(texts) == 0 {
		return &Result{Comment: CommentNoOCRText}, nil
	}

	brand := urlutil.CleanQuery(texts[0])
	if len(brand) <= 1 {
		return &Result{Comment: CommentOCRTextShort}, nil
	}

	forbidden := append(append([]string{}, urlutil.IgnoreDomains...), urlutil.WebHostingDomains...)
	results, err := e.textSearch(ctx, search.TextQuery{
		Query:               strings.ToLower(brand),
		Num:                 e.cfg.LogoProbeResults,
		ForbiddenDomains:    forbidden,
		ForbiddenSubdomains: urlutil.WebHostingDomains,
	})
	if err != nil {
		return nil, err
	}

	cands := e.gather(ctx, drv, results)
	kept, comment := e.vet(ctx, q, cands, s.exactTextMatch(brand))

	res := resultOf(kept, comment)
	res.BrandName = brand
	return res, nil
}

// exactTextMatch accepts a candidate whose own logo reads the same brand
// text, ignoring case and spacing. It backstops embedding validation for
// wordmark logos whose crops embed poorly.
func (s *LogoProbe) exactTextMatch(brand string) exactMatchFunc {
	want := foldBrand(brand)
	return func(ctx context.Context, logo []byte) bool {
		texts, err := s.engine.ocr.DetectText(ctx, logo)
		if err != nil || len(texts) == 0 {
			return false
		}
		return foldBrand(urlutil.CleanQuery(texts[0])) == want
	}
}

// foldBrand normalizes brand text for exact comparison.
func foldBrand(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// LabelProbe is the logo probe's second chance: when OCR yields next to
// nothing, ask the vision service for a generic brand label instead and
// search for that.
type LabelProbe struct {
	engine *Engine
}

func (s *LabelProbe) Branch() Branch {
	return BranchLogoToBrand
}

func (s *LabelProbe) Discover(ctx context.Context, drv browser.Driver, q Query) (*Result, error) {
	e := s.engine

	labels, err := e.labeler.DetectBrands(ctx, q.ReferenceLogo)
	if err != nil {
		log.Warnf("discovery: label reference logo: %v", err)
		return &Result{Comment: CommentNoLogoLabel}, nil
	}
	if len(labels) == 0 || labels[0] == "" {
		return &Result{Comment: CommentNoLogoLabel}, nil
	}
	brand := labels[0]

	results, err := e.textSearch(ctx, search.TextQuery{
		Query:               strings.ToLower(brand),
		Num:                 e.cfg.LogoProbeResults,
		ForbiddenDomains:    urlutil.WebHostingDomains,
		ForbiddenSubdomains: urlutil.WebHostingDomains,
	})
	if err != nil {
		return nil, err
	}

	cands := e.gather(ctx, drv, results)
	kept, comment := e.vet(ctx, q, cands, s.exactLabelMatch(brand))

	res := resultOf(kept, comment)
	res.BrandName = brand
	return res, nil
}

// exactLabelMatch accepts a candidate whose own logo is labeled with the
// same brand.
func (s *LabelProbe) exactLabelMatch(brand string) exactMatchFunc {
	want := strings.ToLower(brand)
	return func(ctx context.Context, logo []byte) bool {
		labels, err := s.engine.labeler.DetectBrands(ctx, logo)
		if err != nil || len(labels) == 0 {
			return false
		}
		return strings.ToLower(labels[0]) == want
	}
}
