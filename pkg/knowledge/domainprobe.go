package knowledge

import (
	"context"

	"brandwatch/pkg/browser"
	"brandwatch/pkg/search"
	"brandwatch/pkg/urlutil"
)

// DomainProbe discovers a brand by searching the page's own registrable
// domain. Benign sites tend to rank for their own domain; phishing sites on
// throwaway hosts do not.
type DomainProbe struct {
	engine *Engine
}

func (s *DomainProbe) Branch() Branch {
	return BranchDomainToBrand
}

func (s *DomainProbe) Discover(ctx context.Context, drv browser.Driver, q Query) (*Result, error) {
	e := s.engine

	results, err := e.textSearch(ctx, search.TextQuery{
		Query:               q.Registrable(),
		Num:                 e.cfg.DomainProbeResults,
		ForbiddenDomains:    urlutil.WebHostingDomains,
		ForbiddenSubdomains: urlutil.WebHostingDomains,
	})
	if err != nil {
		return nil, err
	}

	cands := e.gather(ctx, drv, results)
	kept, comment := e.vet(ctx, q, cands, nil)
	return resultOf(kept, comment), nil
}
