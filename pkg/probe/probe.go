// Package probe runs the behavioral-interaction fallback against pages with
// no admissible visual brand evidence.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"brandwatch/pkg/browser"
	bwerrors "brandwatch/pkg/errors"
	"brandwatch/pkg/pipeline"
	"brandwatch/pkg/runner"
)

// ModelProber delegates page interaction to a helper process that drives
// its own automation session. The supervised driver is only used to confirm
// the page still resolves before handing off.
type ModelProber struct {
	runner  runner.CommandRunner
	command string
	args    []string
}

type Option func(*ModelProber)

// WithRunner overrides the command runner, mainly for tests.
func WithRunner(r runner.CommandRunner) Option {
	return func(p *ModelProber) {
		p.runner = r
	}
}

func NewModelProber(command string, args []string, opts ...Option) *ModelProber {
	p := &ModelProber{
		runner:  runner.NewSimpleRunner(),
		command: command,
		args:    args,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type probeRequest struct {
	URL string `json:"url"`
}

type probeResponse struct {
	Phishing           bool    `json:"phishing"`
	Target             string  `json:"target,omitempty"`
	RedirectionEvasion bool    `json:"redirection_evasion,omitempty"`
	NoVerification     bool    `json:"no_verification,omitempty"`
	AlgoSeconds        float64 `json:"algo_seconds,omitempty"`
	Error              string  `json:"error,omitempty"`
}

func (p *ModelProber) Probe(ctx context.Context, drv browser.Driver, pageURL string) (*pipeline.ProbeOutcome, error) {
	if drv != nil {
		if err := drv.Navigate(ctx, pageURL); err != nil {
			return nil, err
		}
	}

	stdin, err := json.Marshal(probeRequest{URL: pageURL})
	if err != nil {
		return nil, bwerrors.NewProviderError("probe", err)
	}

	stdout, err := p.runner.Run(ctx, p.command, p.args, stdin)
	if err != nil {
		return nil, bwerrors.NewProviderError("probe", err)
	}

	var resp probeResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return nil, bwerrors.NewProviderError("probe", err)
	}
	if resp.Error != "" {
		return nil, bwerrors.NewProviderError("probe", fmt.Errorf("%s", resp.Error))
	}

	return &pipeline.ProbeOutcome{
		Phishing:           resp.Phishing,
		Target:             resp.Target,
		RedirectionEvasion: resp.RedirectionEvasion,
		NoVerification:     resp.NoVerification,
		AlgoTime:           time.Duration(resp.AlgoSeconds * float64(time.Second)),
	}, nil
}
