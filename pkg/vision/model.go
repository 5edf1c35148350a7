package vision

import (
	"context"
	"encoding/json"
	"fmt"

	bwerrors "brandwatch/pkg/errors"
	"brandwatch/pkg/runner"
)

// ModelClient bridges to the local detection models (logo detector, logo
// encoder, phishing detector) through a helper process speaking JSON over
// stdin/stdout. One process invocation serves one request.
type ModelClient struct {
	runner  runner.CommandRunner
	command string
	args    []string
}

type ModelOption func(*ModelClient)

// WithRunner overrides the command runner, mainly for tests.
func WithRunner(r runner.CommandRunner) ModelOption {
	return func(m *ModelClient) {
		m.runner = r
	}
}

func NewModelClient(command string, args []string, opts ...ModelOption) *ModelClient {
	m := &ModelClient{
		runner:  runner.NewSimpleRunner(),
		command: command,
		args:    args,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type modelRequest struct {
	Op    string `json:"op"`
	Image []byte `json:"image,omitempty"`
	URL   string `json:"url,omitempty"`
}

type modelResponse struct {
	Logo         []byte    `json:"logo,omitempty"`
	Embedding    []float64 `json:"embedding,omitempty"`
	HasLogo      bool      `json:"has_logo,omitempty"`
	InTargetList bool      `json:"in_target_list,omitempty"`
	Category     int       `json:"category,omitempty"`
	Target       string    `json:"target,omitempty"`
	Error        string    `json:"error,omitempty"`
}

func (m *ModelClient) call(ctx context.Context, req modelRequest) (*modelResponse, error) {
	stdin, err := json.Marshal(req)
	if err != nil {
		return nil, bwerrors.NewProviderError("model", err)
	}

	stdout, err := m.runner.Run(ctx, m.command, m.args, stdin)
	if err != nil {
		return nil, bwerrors.NewProviderError("model", err)
	}

	var resp modelResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return nil, bwerrors.NewProviderError("model", err)
	}
	if resp.Error != "" {
		return nil, bwerrors.NewProviderError("model", fmt.Errorf("%s: %s", req.Op, resp.Error))
	}
	return &resp, nil
}

// CropLogo extracts the most prominent logo from a page screenshot. A nil
// logo with a nil error means no logo was predicted.
func (m *ModelClient) CropLogo(ctx context.Context, screenshot []byte) ([]byte, error) {
	resp, err := m.call(ctx, modelRequest{Op: "crop_logo", Image: screenshot})
	if err != nil {
		return nil, err
	}
	if len(resp.Logo) == 0 {
		return nil, nil
	}
	return resp.Logo, nil
}

// Encode produces an L2-normalized embedding for a logo image.
func (m *ModelClient) Encode(ctx context.Context, image []byte) ([]float64, error) {
	resp, err := m.call(ctx, modelRequest{Op: "encode", Image: image})
	if err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// HasLogo reports whether the screenshot carries a logo and whether the
// brand is already in the target list.
func (m *ModelClient) HasLogo(ctx context.Context, screenshot []byte) (bool, bool, error) {
	resp, err := m.call(ctx, modelRequest{Op: "has_logo", Image: screenshot})
	if err != nil {
		return false, false, err
	}
	return resp.HasLogo, resp.InTargetList, nil
}

// Detect runs the phishing detector against the page.
func (m *ModelClient) Detect(ctx context.Context, pageURL string, screenshot []byte) (int, string, error) {
	resp, err := m.call(ctx, modelRequest{Op: "detect", URL: pageURL, Image: screenshot})
	if err != nil {
		return 0, "", err
	}
	return resp.Category, resp.Target, nil
}
