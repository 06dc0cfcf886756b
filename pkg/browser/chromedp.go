package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

type chromedpDriver struct {
	execPath string
}

func newChromedpDriver(opts InitOptions) *chromedpDriver {
	execPath := opts.ExecPath
	if execPath == "" {
		execPath = os.Getenv("CHROME_BIN")
	}
	return &chromedpDriver{execPath: execPath}
}

func (d *chromedpDriver) Kind() DriverKind {
	return DriverChromedp
}

func (d *chromedpDriver) Open(opts SessionOptions) (Page, error) {
	if opts.Browser != BrowserChromium && opts.Browser != "" {
		return nil, fmt.Errorf("chromedp driver only supports %s, got %q", BrowserChromium, opts.Browser)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
	)
	if d.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(d.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &chromedpPage{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     opts.Timeout,
		permissions: opts.Permissions,
		slowMo:      opts.SlowMo,
		url:         "about:blank",
	}, nil
}

// Stop is a no-op; every page owns its own browser process.
func (d *chromedpDriver) Stop() error {
	return nil
}

type chromedpPage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	permissions []string
	slowMo      time.Duration

	mu  sync.Mutex
	url string
}

// run executes actions under the page timeout and maps deadline expiry onto
// ErrTimeout.
func (p *chromedpPage) run(action, selector string, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	if p.slowMo > 0 {
		time.Sleep(p.slowMo)
	}

	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx, actions...)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return fmt.Errorf("%s %q: %w: %w", action, selector, ErrTimeout, err)
	}
	return fmt.Errorf("%s %q: %w", action, selector, err)
}

// evaluate runs expr and decodes its awaited result into res.
func evaluate(expr string, res interface{}) chromedp.Action {
	return chromedp.Evaluate(expr, res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	})
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// elementResult is what the element inspection scripts return.
type elementResult struct {
	Found bool `json:"found"`
	Value bool `json:"value"`
}

func (p *chromedpPage) inspect(action, selector, body string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {found: false, value: false};
		return {found: true, value: !!(%s)};
	})()`, jsString(selector), body)

	var res elementResult
	if err := p.run(action, selector, 0, evaluate(script, &res)); err != nil {
		return false, err
	}
	if !res.Found {
		return false, fmt.Errorf("%s %q: %w", action, selector, ErrNoElement)
	}
	return res.Value, nil
}

func (p *chromedpPage) grantPermissions(target string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(p.permissions) == 0 {
			return nil
		}
		u, err := url.Parse(target)
		if err != nil {
			return err
		}

		var perms []cdpbrowser.PermissionType
		for _, name := range p.permissions {
			switch name {
			case PermissionClipboardRead:
				perms = append(perms, cdpbrowser.PermissionTypeClipboardReadWrite)
			case PermissionClipboardWrite:
				perms = append(perms, cdpbrowser.PermissionTypeClipboardSanitizedWrite)
			default:
				return fmt.Errorf("unsupported permission %q", name)
			}
		}

		return cdpbrowser.GrantPermissions(perms).
			WithOrigin(u.Scheme + "://" + u.Host).
			Do(ctx)
	})
}

func (p *chromedpPage) Navigate(target string, opts NavigateOptions) error {
	if err := p.run("goto", target, opts.Timeout,
		p.grantPermissions(target),
		chromedp.Navigate(target),
	); err != nil {
		return err
	}
	p.refreshURL()
	return nil
}

func (p *chromedpPage) refreshURL() {
	var location string
	if err := p.run("location", "", 0, chromedp.Location(&location)); err != nil {
		return
	}
	p.mu.Lock()
	p.url = location
	p.mu.Unlock()
}

func (p *chromedpPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *chromedpPage) Title() (string, error) {
	var title string
	err := p.run("title", "", 0, chromedp.Title(&title))
	return title, err
}

func (p *chromedpPage) Content() (string, error) {
	var html string
	err := p.run("content", "html", 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromedpPage) Count(selector string) (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
	err := p.run("count", selector, 0, evaluate(script, &n))
	return n, err
}

// Fill sets the value through the native setter so framework listeners see
// the change, then fires input and change events.
func (p *chromedpPage) Fill(selector, value string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const setter = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value').set;
		el.focus();
		setter.call(el, %s);
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, jsString(selector), jsString(value))

	var found bool
	if err := p.run("fill", selector, 0,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		evaluate(script, &found),
	); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("fill %q: %w", selector, ErrNoElement)
	}
	return nil
}

func (p *chromedpPage) Click(selector string) error {
	if err := p.run("click", selector, 0, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return err
	}
	p.refreshURL()
	return nil
}

func (p *chromedpPage) ClickNth(selector string, index int) error {
	var nodes []*cdp.Node
	if err := p.run("query", selector, 0,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return err
	}
	if index < 0 || index >= len(nodes) {
		return fmt.Errorf("click %q[%d]: %w (%d matches)", selector, index, ErrNoElement, len(nodes))
	}
	if err := p.run("click", selector, 0, chromedp.MouseClickNode(nodes[index])); err != nil {
		return err
	}
	p.refreshURL()
	return nil
}

var chromedpKeys = map[string]string{
	KeyArrowRight: kb.ArrowRight,
	KeyArrowLeft:  kb.ArrowLeft,
	KeyArrowUp:    kb.ArrowUp,
	KeyArrowDown:  kb.ArrowDown,
	KeyEnter:      kb.Enter,
	KeyTab:        kb.Tab,
}

func (p *chromedpPage) Press(selector, key string) error {
	mapped, ok := chromedpKeys[key]
	if !ok {
		mapped = key
	}
	return p.run("press "+key, selector, 0,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, mapped, chromedp.ByQuery),
	)
}

func (p *chromedpPage) InputValue(selector string) (string, error) {
	var value string
	err := p.run("input value", selector, 0, chromedp.Value(selector, &value, chromedp.ByQuery))
	return value, err
}

func (p *chromedpPage) IsChecked(selector string) (bool, error) {
	return p.inspect("is checked", selector, "el.checked")
}

func (p *chromedpPage) IsVisible(selector string) (bool, error) {
	visible, err := p.inspect("is visible", selector,
		"el.offsetWidth || el.offsetHeight || el.getClientRects().length")
	if errors.Is(err, ErrNoElement) {
		return false, nil
	}
	return visible, err
}

func (p *chromedpPage) Evaluate(script string) (interface{}, error) {
	var result interface{}
	err := p.run("evaluate", script, 0, evaluate("("+script+")()", &result))
	return result, err
}

func (p *chromedpPage) WaitForFunction(script string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	start := time.Now()
	err := p.run("wait for function", script, timeout+time.Second,
		chromedp.PollFunction(script, nil, chromedp.WithPollingTimeout(timeout)),
	)
	if err != nil && !errors.Is(err, ErrTimeout) && time.Since(start) >= timeout {
		return fmt.Errorf("wait for function %q: %w: %w", script, ErrTimeout, err)
	}
	return err
}

func (p *chromedpPage) Screenshot(path string) error {
	var buf []byte
	// Quality 100 yields PNG
	if err := p.run("screenshot", path, 0, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	p.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
