package knowledge

import (
	"context"

	"brandwatch/pkg/safebrowsing"
	"brandwatch/pkg/search"
)

// SearchProvider runs web searches for brand discovery
type SearchProvider interface {
	TextSearch(ctx context.Context, q search.TextQuery) ([]search.Result, error)
}

// TextReader extracts ordered text annotations from an image
type TextReader interface {
	DetectText(ctx context.Context, image []byte) ([]string, error)
}

// BrandLabeler returns generic brand-label descriptions for a logo image
type BrandLabeler interface {
	DetectBrands(ctx context.Context, image []byte) ([]string, error)
}

// LogoDetector crops the most prominent logo out of a page screenshot.
// A nil crop with a nil error means no logo was predicted.
type LogoDetector interface {
	CropLogo(ctx context.Context, screenshot []byte) ([]byte, error)
}

// LogoEncoder produces an L2-normalized embedding for a logo image
type LogoEncoder interface {
	Encode(ctx context.Context, image []byte) ([]float64, error)
}

// TrustChecker vets URLs against a blocklist
type TrustChecker interface {
	LookupURLs(ctx context.Context, urls []string, platforms ...string) (map[string]safebrowsing.Verdict, error)
}
