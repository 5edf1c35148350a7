package pipeline

import "time"

// Category values for an evaluated page.
const (
	CategoryBenign   = 0
	CategoryPhishing = 1
)

// RuntimeBreakdown attributes the evaluation wall time to its stages.
type RuntimeBreakdown struct {
	Detector         time.Duration
	Discovery        time.Duration
	InteractionAlgo  time.Duration
	InteractionTotal time.Duration
}

// InteractionFlags describe how the behavioral fallback went.
type InteractionFlags struct {
	Success            bool
	RedirectionEvasion bool
	NoVerification     bool
}

// Outcome is the terminal per-page decision.
type Outcome struct {
	URL               string
	Category          int
	Target            string
	HasLogo           bool
	BrandInTargetList bool
	FoundKnowledge    bool
	// DiscoveryBranch is the discovery status tag, e.g. "success_logo2brand"
	// or "failure_no_result_from_OCR". Empty when discovery never ran.
	DiscoveryBranch string
	Runtime         RuntimeBreakdown
	Interaction     InteractionFlags
}
