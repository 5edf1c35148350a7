package knowledge

import (
	"context"

	"brandwatch/pkg/browser"
)

// DiscoveryStrategy is one branch of brand knowledge discovery. The set of
// strategies is closed: each Branch value dispatches to exactly one
// implementation through this interface.
type DiscoveryStrategy interface {
	Branch() Branch
	Discover(ctx context.Context, drv browser.Driver, q Query) (*Result, error)
}
