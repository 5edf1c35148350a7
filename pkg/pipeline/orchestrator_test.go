package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandwatch/pkg/browser"
	bwerrors "brandwatch/pkg/errors"
	"brandwatch/pkg/knowledge"
)

type fakeDriver struct {
	title  string
	navErr error
}

func (d *fakeDriver) Navigate(context.Context, string) error { return d.navErr }

func (d *fakeDriver) Screenshot(context.Context) ([]byte, error) { return nil, nil }

func (d *fakeDriver) Title(context.Context) (string, error) { return d.title, nil }

func (d *fakeDriver) ElementScreenshot(context.Context, string) ([]byte, error) { return nil, nil }

func (d *fakeDriver) Close() error { return nil }

type fakePool struct {
	drv        browser.Driver
	sessionErr error
	windows    int
	windowErr  error
	failures   int
}

func (p *fakePool) Session() (browser.Driver, error) {
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return p.drv, nil
}

func (p *fakePool) ReportFailure() error {
	p.failures++
	return nil
}

func (p *fakePool) WindowCount() (int, error) { return p.windows, p.windowErr }

type fakeOracle struct {
	hasLogo  bool
	inTarget bool
	err      error
}

func (o *fakeOracle) HasLogo(context.Context, []byte) (bool, bool, error) {
	return o.hasLogo, o.inTarget, o.err
}

type fakeDetector struct {
	category int
	target   string
	err      error
	calls    int
}

func (d *fakeDetector) Detect(context.Context, string, []byte) (int, string, error) {
	d.calls++
	return d.category, d.target, d.err
}

type fakeDiscoverer struct {
	res    *knowledge.Result
	err    error
	calls  int
	branch knowledge.Branch
}

func (d *fakeDiscoverer) Discover(_ context.Context, _ browser.Driver, _ []byte, _, _ string, branch knowledge.Branch) (*knowledge.Result, error) {
	d.calls++
	d.branch = branch
	return d.res, d.err
}

type fakeAdmitter struct {
	brand   string
	domains []string
	err     error
	calls   int
}

func (a *fakeAdmitter) Admit(_ context.Context, brand string, domains []string, _ [][]byte) error {
	a.calls++
	a.brand = brand
	a.domains = domains
	return a.err
}

type fakeProber struct {
	outcome *ProbeOutcome
	err     error
	calls   int
}

func (p *fakeProber) Probe(context.Context, browser.Driver, string) (*ProbeOutcome, error) {
	p.calls++
	return p.outcome, p.err
}

func benignPool() *fakePool {
	return &fakePool{drv: &fakeDriver{}, windows: 1}
}

func TestEvaluateHostingTitleShortCircuits(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: true}
	detector := &fakeDetector{}
	pool := &fakePool{drv: &fakeDriver{title: "Welcome to suspicious-site.com"}, windows: 1}
	o := NewOrchestrator(oracle, detector, &fakeDiscoverer{}, &fakeAdmitter{}, pool)

	out, err := o.Evaluate(context.Background(), "https://suspicious-site.com/login", nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryBenign, out.Category)
	assert.False(t, out.HasLogo)
	assert.Zero(t, detector.calls)
}

func TestEvaluateHostingPatternShortCircuits(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: true}
	detector := &fakeDetector{}
	pool := &fakePool{drv: &fakeDriver{title: "Domain For Sale | premium names"}, windows: 1}
	o := NewOrchestrator(oracle, detector, &fakeDiscoverer{}, &fakeAdmitter{}, pool)

	out, err := o.Evaluate(context.Background(), "https://random-page.net", nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryBenign, out.Category)
	assert.Zero(t, detector.calls)
}

func TestEvaluateUnparseableURLDoesNotMatchTitle(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: true}
	detector := &fakeDetector{category: CategoryPhishing, target: "chase"}
	pool := &fakePool{drv: &fakeDriver{title: "Sign in to your account"}, windows: 1}
	o := NewOrchestrator(oracle, detector, &fakeDiscoverer{}, &fakeAdmitter{}, pool)

	// No hostname means no registrable domain; an ordinary title must not
	// trip the containment check via the empty string.
	out, err := o.Evaluate(context.Background(), "http:///login/page", nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryPhishing, out.Category)
	assert.Equal(t, 1, detector.calls)
}

func TestEvaluateNoLogoFallsBackWithoutProber(t *testing.T) {
	oracle := &fakeOracle{hasLogo: false}
	detector := &fakeDetector{category: CategoryPhishing, target: "chase"}
	o := NewOrchestrator(oracle, detector, &fakeDiscoverer{}, &fakeAdmitter{}, benignPool())

	out, err := o.Evaluate(context.Background(), "https://no-logo.example", nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryBenign, out.Category)
	assert.False(t, out.HasLogo)
	assert.True(t, out.Interaction.NoVerification)
	assert.Zero(t, detector.calls)
}

func TestEvaluateKnownBrandRunsDetector(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: true}
	detector := &fakeDetector{category: CategoryPhishing, target: "chase"}
	discovery := &fakeDiscoverer{}
	o := NewOrchestrator(oracle, detector, discovery, &fakeAdmitter{}, benignPool())

	out, err := o.Evaluate(context.Background(), "https://chase-login.evil", nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryPhishing, out.Category)
	assert.Equal(t, "chase", out.Target)
	assert.True(t, out.BrandInTargetList)
	assert.Zero(t, discovery.calls)
}

func TestEvaluateDetectorFailureDegradesToBenign(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: true}
	detector := &fakeDetector{err: errors.New("model crashed")}
	o := NewOrchestrator(oracle, detector, &fakeDiscoverer{}, &fakeAdmitter{}, benignPool())

	out, err := o.Evaluate(context.Background(), "https://chase-login.evil", nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryBenign, out.Category)
	assert.Empty(t, out.Target)
}

func TestEvaluateExpansionAdmitsThenDetects(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: false}
	detector := &fakeDetector{category: CategoryPhishing, target: "newbank"}
	discovery := &fakeDiscoverer{res: &knowledge.Result{
		BrandName: "newbank",
		Domains:   []string{"newbank.com"},
		Logos:     [][]byte{[]byte("logo")},
		Status:    "success_logo2brand",
	}}
	admitter := &fakeAdmitter{}
	o := NewOrchestrator(oracle, detector, discovery, admitter, benignPool(),
		WithBranch(knowledge.BranchLogoToBrand))

	out, err := o.Evaluate(context.Background(), "https://newbank-verify.evil", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, admitter.calls)
	assert.Equal(t, "newbank", admitter.brand)
	assert.Equal(t, []string{"newbank.com"}, admitter.domains)
	assert.True(t, out.FoundKnowledge)
	assert.Equal(t, "success_logo2brand", out.DiscoveryBranch)
	assert.Equal(t, CategoryPhishing, out.Category)
	assert.Equal(t, "newbank", out.Target)
	assert.Equal(t, knowledge.BranchLogoToBrand, discovery.branch)
}

func TestEvaluateExpansionFailureFallsBack(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: false}
	detector := &fakeDetector{}
	discovery := &fakeDiscoverer{res: &knowledge.Result{Status: "failure_no_result_from_gsearch"}}
	admitter := &fakeAdmitter{}
	prober := &fakeProber{outcome: &ProbeOutcome{Phishing: true, Target: "unknown"}}
	probePool := benignPool()
	o := NewOrchestrator(oracle, detector, discovery, admitter, benignPool(),
		WithProber(prober, probePool))

	out, err := o.Evaluate(context.Background(), "https://unknown-brand.evil", nil)
	require.NoError(t, err)

	assert.Zero(t, admitter.calls)
	assert.False(t, out.FoundKnowledge)
	assert.Zero(t, detector.calls)
	assert.Equal(t, 1, prober.calls)
	assert.True(t, out.Interaction.Success)
	assert.Equal(t, CategoryPhishing, out.Category)
	assert.Equal(t, "unknown", out.Target)
}

func TestEvaluateAdmitErrorFallsBack(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: false}
	discovery := &fakeDiscoverer{res: &knowledge.Result{
		BrandName: "newbank",
		Domains:   []string{"newbank.com"},
		Status:    "success_domain2brand",
	}}
	admitter := &fakeAdmitter{err: errors.New("disk full")}
	detector := &fakeDetector{}
	o := NewOrchestrator(oracle, detector, discovery, admitter, benignPool())

	out, err := o.Evaluate(context.Background(), "https://newbank.com", nil)
	require.NoError(t, err)

	assert.False(t, out.FoundKnowledge)
	assert.Zero(t, detector.calls)
	assert.True(t, out.Interaction.NoVerification)
}

func TestEvaluateDiscoveryQuotaErrorPropagates(t *testing.T) {
	oracle := &fakeOracle{hasLogo: true, inTarget: false}
	discovery := &fakeDiscoverer{err: bwerrors.ErrQuotaExceeded}
	o := NewOrchestrator(oracle, &fakeDetector{}, discovery, &fakeAdmitter{}, benignPool())

	_, err := o.Evaluate(context.Background(), "https://any.example", nil)
	assert.ErrorIs(t, err, bwerrors.ErrQuotaExceeded)
}

func TestEvaluateWindowAnomalyDiscardsProbeVerdict(t *testing.T) {
	oracle := &fakeOracle{hasLogo: false}
	prober := &fakeProber{outcome: &ProbeOutcome{Phishing: true, Target: "chase"}}
	probePool := &fakePool{drv: &fakeDriver{}, windows: 2}
	o := NewOrchestrator(oracle, &fakeDetector{}, &fakeDiscoverer{}, &fakeAdmitter{}, benignPool(),
		WithProber(prober, probePool))

	out, err := o.Evaluate(context.Background(), "https://popup-farm.evil", nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryBenign, out.Category)
	assert.False(t, out.Interaction.Success)
	assert.Equal(t, 1, probePool.failures)
}

func TestEvaluateProbeErrorRecyclesSession(t *testing.T) {
	oracle := &fakeOracle{hasLogo: false}
	prober := &fakeProber{err: errors.New("interaction timed out")}
	probePool := benignPool()
	o := NewOrchestrator(oracle, &fakeDetector{}, &fakeDiscoverer{}, &fakeAdmitter{}, benignPool(),
		WithProber(prober, probePool))

	out, err := o.Evaluate(context.Background(), "https://flaky.example", nil)
	require.NoError(t, err)

	assert.True(t, out.Interaction.NoVerification)
	assert.False(t, out.Interaction.Success)
	assert.Equal(t, 1, probePool.failures)
}

func TestEvaluateOracleErrorDegradesToFallback(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("oracle offline")}
	detector := &fakeDetector{}
	o := NewOrchestrator(oracle, detector, &fakeDiscoverer{}, &fakeAdmitter{}, benignPool())

	out, err := o.Evaluate(context.Background(), "https://any.example", nil)
	require.NoError(t, err)

	assert.False(t, out.HasLogo)
	assert.True(t, out.Interaction.NoVerification)
	assert.Zero(t, detector.calls)
}

func TestEvaluateFetchSessionErrorIsHard(t *testing.T) {
	pool := &fakePool{sessionErr: bwerrors.ErrRestartBudget}
	o := NewOrchestrator(&fakeOracle{}, &fakeDetector{}, &fakeDiscoverer{}, &fakeAdmitter{}, pool)

	_, err := o.Evaluate(context.Background(), "https://any.example", nil)
	assert.ErrorIs(t, err, bwerrors.ErrRestartBudget)
}
