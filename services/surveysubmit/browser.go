package surveysubmit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Browser is the part of a browser the submitter drives.
type Browser interface {
	// Open loads `url` in the current tab and waits for it to load.
	Open(ctx context.Context, url string) error
	// Click clicks the first element matching `selector`, waiting for it to
	// appear.
	Click(ctx context.Context, selector string) error
	Close() error
}

type RodOptions struct {
	// ControlURL connects to an already running browser instead of
	// launching one.
	ControlURL string `json:"control_url"`
	// Bin is the browser binary to launch, rod picks one when empty.
	Bin      string `json:"bin"`
	Headless bool   `json:"headless"`
	// TimeoutSeconds bounds each navigation and element lookup.
	TimeoutSeconds int `json:"timeout_seconds"`
}

func (o RodOptions) timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// RodBrowser drives a Chromium over the DevTools protocol.
type RodBrowser struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
}

func LaunchRod(ctx context.Context, opts RodOptions) (*RodBrowser, error) {
	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	return &RodBrowser{browser: browser, timeout: opts.timeout()}, nil
}

func (b *RodBrowser) Open(ctx context.Context, url string) error {
	if b.page == nil {
		page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return fmt.Errorf("create page: %w", err)
		}
		b.page = page
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

func (b *RodBrowser) Click(ctx context.Context, selector string) error {
	if b.page == nil {
		return fmt.Errorf("no page open")
	}
	el, err := b.page.Context(ctx).Timeout(b.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (b *RodBrowser) Close() error {
	return b.browser.Close()
}
