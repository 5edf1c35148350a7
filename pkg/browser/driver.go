// Package browser provides the automation capability interface used by the
// decision pipeline, a Chrome-backed implementation, and a session
// supervisor with a bounded restart budget.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	bwerrors "brandwatch/pkg/errors"
)

// Driver is the capability contract the pipeline needs from any automation
// backend: navigate, screenshot, read the title, screenshot an element.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Title(ctx context.Context) (string, error)
	ElementScreenshot(ctx context.Context, selector string) ([]byte, error)
	Close() error
}

// Config holds browser session settings.
type Config struct {
	Headless        bool
	ViewportWidth   int
	ViewportHeight  int
	PageLoadTimeout time.Duration
	SettleTime      time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:        true,
		ViewportWidth:   1920,
		ViewportHeight:  1080,
		PageLoadTimeout: 60 * time.Second,
		SettleTime:      3 * time.Second,
	}
}

// ChromeDriver implements Driver on a dedicated Chrome instance.
type ChromeDriver struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Boot launches a fresh Chrome instance with a single blank page.
func Boot(cfg Config) (*ChromeDriver, error) {
	l := launcher.New().Headless(cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, err
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, err
	}

	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		_ = (proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.ViewportWidth,
			Height:            cfg.ViewportHeight,
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		}).Call(page)
	}

	return &ChromeDriver{cfg: cfg, launcher: l, browser: b, page: page}, nil
}

// Navigate loads url and waits for the page to settle. Expired deadlines
// surface as navigation timeouts so the orchestrator can degrade just the
// current branch.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx).Timeout(d.cfg.PageLoadTimeout)
	if err := page.Navigate(url); err != nil {
		return wrapNavErr(url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return wrapNavErr(url, err)
	}
	if d.cfg.SettleTime > 0 {
		select {
		case <-time.After(d.cfg.SettleTime):
		case <-ctx.Done():
			return wrapNavErr(url, ctx.Err())
		}
	}
	return nil
}

// Screenshot captures the current viewport as PNG.
func (d *ChromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.page.Context(ctx).Screenshot(false, nil)
}

// Title returns the current page title.
func (d *ChromeDriver) Title(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// ElementScreenshot captures the first element matching selector as PNG.
func (d *ChromeDriver) ElementScreenshot(ctx context.Context, selector string) ([]byte, error) {
	el, err := d.page.Context(ctx).Timeout(d.cfg.PageLoadTimeout).Element(selector)
	if err != nil {
		return nil, err
	}
	return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

// WindowCount returns the number of open browser windows. More than one
// indicates a session anomaly during interactive probing.
func (d *ChromeDriver) WindowCount() (int, error) {
	pages, err := d.browser.Pages()
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// Close quits the browser and cleans up the launched process.
func (d *ChromeDriver) Close() error {
	if d.browser == nil {
		return nil
	}
	err := d.browser.Close()
	if d.launcher != nil {
		d.launcher.Cleanup()
	}
	return err
}

func wrapNavErr(url string, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded)
	return bwerrors.NewNavigationError(url, timeout, err)
}
