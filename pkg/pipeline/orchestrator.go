package pipeline

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"brandwatch/pkg/browser"
	"brandwatch/pkg/knowledge"
	"brandwatch/pkg/urlutil"
)

// OrchestratorOpts carries the orchestrator's collaborators and tuning.
type OrchestratorOpts struct {
	oracle    LogoOracle
	detector  BaseDetector
	prober    InteractionProber
	discovery Discoverer
	store     Admitter
	fetchPool SessionPool
	probePool SessionPool
	branch    knowledge.Branch
	fallback  bool
	now       func() time.Time
}

type OptFunc func(*OrchestratorOpts)

// WithProber enables the behavioral fallback with the given prober and its
// own browser session pool.
func WithProber(p InteractionProber, pool SessionPool) OptFunc {
	return func(o *OrchestratorOpts) {
		o.prober = p
		o.probePool = pool
		o.fallback = true
	}
}

// WithBranch selects the discovery branch used by knowledge expansion.
func WithBranch(b knowledge.Branch) OptFunc {
	return func(o *OrchestratorOpts) {
		o.branch = b
	}
}

// WithClock overrides the runtime-attribution clock, mainly for tests.
func WithClock(now func() time.Time) OptFunc {
	return func(o *OrchestratorOpts) {
		o.now = now
	}
}

// Orchestrator sequences the per-page decision: hosting filter, logo check,
// known-brand detection, knowledge expansion, behavioral fallback. One URL's
// failure never aborts the caller's batch; the worst case is a benign
// default with diagnostic flags.
type Orchestrator struct {
	OrchestratorOpts
}

func NewOrchestrator(oracle LogoOracle, detector BaseDetector, discovery Discoverer, store Admitter, fetchPool SessionPool, opts ...OptFunc) *Orchestrator {
	o := OrchestratorOpts{
		oracle:    oracle,
		detector:  detector,
		discovery: discovery,
		store:     store,
		fetchPool: fetchPool,
		branch:    knowledge.BranchLogoToBrand,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Orchestrator{OrchestratorOpts: o}
}

// Evaluate decides one page. The returned error is reserved for hard
// operational failures (search quota, browser restart budget); every other
// collaborator failure degrades inside the state machine.
func (o *Orchestrator) Evaluate(ctx context.Context, pageURL string, screenshot []byte) (*Outcome, error) {
	out := &Outcome{URL: pageURL, Category: CategoryBenign}
	parts := urlutil.FromURL(pageURL)

	drv, err := o.fetchPool.Session()
	if err != nil {
		return nil, err
	}

	// Hosting filter: parked and hosting-provider pages are not worth
	// evaluating. A navigation fault only skips the title check.
	if navErr := drv.Navigate(ctx, pageURL); navErr != nil {
		log.Warnf("pipeline: navigate %s: %v", pageURL, navErr)
	} else if title, titleErr := drv.Title(ctx); titleErr == nil {
		lower := strings.ToLower(title)
		registrable := strings.ToLower(parts.Registrable())
		if (registrable != "" && strings.Contains(lower, registrable)) || urlutil.IsHostingTitle(title) {
			log.WithFields(log.Fields{"url": pageURL, "title": title}).Info("pipeline: hosting or parking page, skipping")
			return out, nil
		}
	}

	hasLogo, inTarget, err := o.oracle.HasLogo(ctx, screenshot)
	if err != nil {
		log.Warnf("pipeline: logo oracle %s: %v", pageURL, err)
		hasLogo, inTarget = false, false
	}
	out.HasLogo = hasLogo
	out.BrandInTargetList = inTarget

	if !hasLogo {
		o.runFallback(ctx, pageURL, out)
		return out, nil
	}

	if inTarget {
		o.runDetector(ctx, pageURL, screenshot, out)
		return out, nil
	}

	admitted, err := o.expandKnowledge(ctx, drv, pageURL, screenshot, parts, out)
	if err != nil {
		return nil, err
	}
	if admitted {
		o.runDetector(ctx, pageURL, screenshot, out)
		return out, nil
	}

	o.runFallback(ctx, pageURL, out)
	return out, nil
}

// runDetector re-runs the base detector and records its verdict. A detector
// failure degrades to the benign default.
func (o *Orchestrator) runDetector(ctx context.Context, pageURL string, screenshot []byte, out *Outcome) {
	start := o.now()
	category, target, err := o.detector.Detect(ctx, pageURL, screenshot)
	out.Runtime.Detector += o.now().Sub(start)

	if err != nil {
		log.Warnf("pipeline: detector %s: %v", pageURL, err)
		return
	}
	out.Category = category
	out.Target = target
}

// expandKnowledge runs the discovery branch and admits validated knowledge.
// Reports whether the store gained a brand.
func (o *Orchestrator) expandKnowledge(ctx context.Context, drv browser.Driver, pageURL string, screenshot []byte, parts urlutil.Parts, out *Outcome) (bool, error) {
	start := o.now()
	res, err := o.discovery.Discover(ctx, drv, screenshot, parts.Domain, parts.TLD, o.branch)
	out.Runtime.Discovery += o.now().Sub(start)
	if err != nil {
		return false, err
	}

	out.DiscoveryBranch = res.Status
	if !strings.HasPrefix(res.Status, "success_") {
		log.WithFields(log.Fields{"url": pageURL, "status": res.Status}).Info("pipeline: no knowledge admitted")
		return false, nil
	}

	if err := o.store.Admit(ctx, res.BrandName, res.Domains, res.Logos); err != nil {
		log.Errorf("pipeline: admit %q: %v", res.BrandName, err)
		return false, nil
	}

	out.FoundKnowledge = true
	log.WithFields(log.Fields{"url": pageURL, "brand": res.BrandName, "domains": len(res.Domains)}).Info("pipeline: brand admitted")
	return true, nil
}

// runFallback probes page behavior when no visual brand evidence decided
// the page. Absent or failing probes leave the benign default in place.
func (o *Orchestrator) runFallback(ctx context.Context, pageURL string, out *Outcome) {
	if !o.fallback || o.prober == nil || o.probePool == nil {
		out.Interaction.NoVerification = true
		return
	}

	start := o.now()
	defer func() {
		out.Runtime.InteractionTotal += o.now().Sub(start)
	}()

	drv, err := o.probePool.Session()
	if err != nil {
		log.Warnf("pipeline: probe session %s: %v", pageURL, err)
		out.Interaction.NoVerification = true
		return
	}

	probe, err := o.prober.Probe(ctx, drv, pageURL)
	if err != nil {
		log.Warnf("pipeline: probe %s: %v", pageURL, err)
		out.Interaction.NoVerification = true
		if reportErr := o.probePool.ReportFailure(); reportErr != nil {
			log.Warnf("pipeline: probe session recycle: %v", reportErr)
		}
		return
	}

	// A stray extra window means the session drifted mid-probe; the verdict
	// cannot be trusted.
	if n, countErr := o.probePool.WindowCount(); countErr == nil && n > 1 {
		log.Warnf("pipeline: probe %s left %d windows open, discarding verdict", pageURL, n)
		if reportErr := o.probePool.ReportFailure(); reportErr != nil {
			log.Warnf("pipeline: probe session recycle: %v", reportErr)
		}
		return
	}

	out.Interaction.Success = true
	out.Interaction.RedirectionEvasion = probe.RedirectionEvasion
	out.Interaction.NoVerification = probe.NoVerification
	out.Runtime.InteractionAlgo += probe.AlgoTime
	if probe.Phishing {
		out.Category = CategoryPhishing
		out.Target = probe.Target
	}
}
