// Package vision implements the OCR and logo-label collaborator.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	bwerrors "brandwatch/pkg/errors"
)

const defaultAPIURL = "https://vision.googleapis.com/v1/images:annotate"

// handwriting hints let OCR pick up CJK brand text
var languageHints = []string{"en-t-i0-handwrit", "zh-t-i0-handwrit", "ja-t-i0-handwrit"}

// Client talks to the image annotation API.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

type Option func(*Client)

// WithAPIURL overrides the API endpoint, mainly for tests.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.apiURL = u
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image        imageContent  `json:"image"`
	Features     []featureSpec `json:"features"`
	ImageContext *imageContext `json:"imageContext,omitempty"`
}

type imageContent struct {
	Content string `json:"content"`
}

type featureSpec struct {
	Type string `json:"type"`
}

type imageContext struct {
	LanguageHints []string `json:"languageHints,omitempty"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		LogoAnnotations []struct {
			Description string `json:"description"`
		} `json:"logoAnnotations"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

func (c *Client) annotate(ctx context.Context, image []byte, feature string, hints []string) (*annotateResponse, error) {
	entry := annotateEntry{
		Image:    imageContent{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []featureSpec{{Type: feature}},
	}
	if len(hints) > 0 {
		entry.ImageContext = &imageContext{LanguageHints: hints}
	}
	reqBody := annotateRequest{Requests: []annotateEntry{entry}}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, bwerrors.NewProviderError("vision", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, bwerrors.NewProviderError("vision", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, bwerrors.NewProviderError("vision", err)
	}

	if len(parsed.Responses) > 0 && parsed.Responses[0].Error != nil {
		return nil, bwerrors.NewProviderError("vision",
			fmt.Errorf("annotation error: %s", parsed.Responses[0].Error.Message))
	}

	return &parsed, nil
}

// DetectText runs OCR on an image and returns the ordered text annotations.
// The first annotation is the full detected block.
func (c *Client) DetectText(ctx context.Context, image []byte) ([]string, error) {
	parsed, err := c.annotate(ctx, image, "TEXT_DETECTION", languageHints)
	if err != nil {
		return nil, err
	}

	var texts []string
	if len(parsed.Responses) > 0 {
		for _, ann := range parsed.Responses[0].TextAnnotations {
			texts = append(texts, ann.Description)
		}
	}
	return texts, nil
}

// DetectBrands returns generic brand-label descriptions for a logo image.
func (c *Client) DetectBrands(ctx context.Context, image []byte) ([]string, error) {
	parsed, err := c.annotate(ctx, image, "LOGO_DETECTION", nil)
	if err != nil {
		return nil, err
	}

	var labels []string
	if len(parsed.Responses) > 0 {
		for _, ann := range parsed.Responses[0].LogoAnnotations {
			labels = append(labels, ann.Description)
		}
	}
	return labels, nil
}
