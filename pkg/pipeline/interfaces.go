package pipeline

import (
	"context"
	"time"

	"brandwatch/pkg/browser"
	"brandwatch/pkg/knowledge"
)

// LogoOracle answers whether a screenshot carries a brand logo and whether
// that brand is already in the reference store.
type LogoOracle interface {
	HasLogo(ctx context.Context, screenshot []byte) (hasLogo bool, inTargetList bool, err error)
}

// BaseDetector is the phishing detector re-run after the store changes.
type BaseDetector interface {
	Detect(ctx context.Context, pageURL string, screenshot []byte) (category int, target string, err error)
}

// ProbeOutcome is the behavioral prober's verdict for one page.
type ProbeOutcome struct {
	Phishing           bool
	Target             string
	RedirectionEvasion bool
	NoVerification     bool
	// AlgoTime is the probe's own decision time, excluding page interaction.
	AlgoTime time.Duration
}

// InteractionProber drives the page (form fills, clicks) to provoke
// phishing behavior when no visual brand evidence is admissible.
type InteractionProber interface {
	Probe(ctx context.Context, drv browser.Driver, pageURL string) (*ProbeOutcome, error)
}

// Discoverer runs one brand-discovery branch against a page.
type Discoverer interface {
	Discover(ctx context.Context, drv browser.Driver, screenshot []byte, domain, tld string, branch knowledge.Branch) (*knowledge.Result, error)
}

// Admitter writes validated brand knowledge into the reference store.
type Admitter interface {
	Admit(ctx context.Context, brand string, domains []string, logos [][]byte) error
}

// SessionPool hands out supervised browser sessions.
type SessionPool interface {
	Session() (browser.Driver, error)
	ReportFailure() error
	WindowCount() (int, error)
}
