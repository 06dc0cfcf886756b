package browser

import (
	"time"
)

// DriverKind names a browser automation backend.
type DriverKind string

const (
	// DriverPlaywright drives Chromium, Firefox or WebKit through playwright-go.
	DriverPlaywright DriverKind = "playwright"

	// DriverChromedp drives Chrome/Chromium over the DevTools protocol.
	DriverChromedp DriverKind = "chromedp"
)

// Browser engines understood by SessionOptions.Browser.
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

// Context permissions.
const (
	PermissionClipboardRead  = "clipboard-read"
	PermissionClipboardWrite = "clipboard-write"
)

// ClipboardPermissions grants both clipboard permissions to a context.
var ClipboardPermissions = []string{PermissionClipboardRead, PermissionClipboardWrite}

// InitOptions configures driver start-up.
type InitOptions struct {
	// Install downloads the driver and browsers before starting (playwright)
	Install bool

	// Browsers limits the installed browsers (playwright)
	Browsers []string

	// ExecPath overrides the Chrome executable (chromedp)
	ExecPath string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Browser selects the engine; empty means chromium
	Browser string

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// SlowMo delays every driver operation (playwright only)
	SlowMo time.Duration

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout is the default timeout for page operations
	Timeout time.Duration

	// Permissions are granted to the browser context
	Permissions []string
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle", "commit"
	WaitUntil string

	// Timeout overrides the session default (0 means default)
	Timeout time.Duration
}

// Default values for various operations
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
)

func (o SessionOptions) withDefaults() SessionOptions {
	if o.Browser == "" {
		o.Browser = BrowserChromium
	}
	if o.Viewport == nil {
		o.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
