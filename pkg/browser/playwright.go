package browser

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightDriver struct {
	pw *playwright.Playwright
}

func newPlaywrightDriver(opts InitOptions) (*playwrightDriver, error) {
	// Keep driver chatter out of test output
	runOpts := &playwright.RunOptions{
		Browsers: opts.Browsers,
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	return &playwrightDriver{pw: pw}, nil
}

func (d *playwrightDriver) Kind() DriverKind {
	return DriverPlaywright
}

func (d *playwrightDriver) browserType(name string) (playwright.BrowserType, error) {
	switch name {
	case BrowserChromium, "":
		return d.pw.Chromium, nil
	case BrowserFirefox:
		return d.pw.Firefox, nil
	case BrowserWebKit:
		return d.pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unknown browser %q", name)
	}
}

func (d *playwrightDriver) Open(opts SessionOptions) (Page, error) {
	browserType, err := d.browserType(opts.Browser)
	if err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(milliseconds(opts.SlowMo))
	}
	browser, err := browserType.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
		Permissions: opts.Permissions,
	}
	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(milliseconds(opts.Timeout))

	return &playwrightPage{
		browser: browser,
		context: context,
		page:    page,
		timeout: opts.Timeout,
	}, nil
}

func (d *playwrightDriver) Stop() error {
	if d.pw == nil {
		return nil
	}
	return d.pw.Stop()
}

type playwrightPage struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration
}

// wrapPlaywright attaches the action and selector to a driver error and maps
// playwright timeouts onto ErrTimeout.
func wrapPlaywright(action, selector string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s %q: %w: %w", action, selector, ErrTimeout, err)
	}
	return fmt.Errorf("%s %q: %w", action, selector, err)
}

func (p *playwrightPage) first(selector string) playwright.Locator {
	return p.page.Locator(selector).First()
}

func (p *playwrightPage) Navigate(url string, opts NavigateOptions) error {
	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = playwright.Float(milliseconds(opts.Timeout))
	}

	_, err := p.page.Goto(url, gotoOpts)
	return wrapPlaywright("goto", url, err)
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Title() (string, error) {
	title, err := p.page.Title()
	return title, wrapPlaywright("title", "", err)
}

func (p *playwrightPage) Content() (string, error) {
	content, err := p.page.Content()
	return content, wrapPlaywright("content", "", err)
}

func (p *playwrightPage) Count(selector string) (int, error) {
	n, err := p.page.Locator(selector).Count()
	return n, wrapPlaywright("count", selector, err)
}

func (p *playwrightPage) Fill(selector, value string) error {
	return wrapPlaywright("fill", selector, p.first(selector).Fill(value))
}

func (p *playwrightPage) Click(selector string) error {
	return wrapPlaywright("click", selector, p.first(selector).Click())
}

func (p *playwrightPage) ClickNth(selector string, index int) error {
	n, err := p.page.Locator(selector).Count()
	if err != nil {
		return wrapPlaywright("count", selector, err)
	}
	if index < 0 || index >= n {
		return fmt.Errorf("click %q[%d]: %w (%d matches)", selector, index, ErrNoElement, n)
	}
	return wrapPlaywright("click", selector, p.page.Locator(selector).Nth(index).Click())
}

func (p *playwrightPage) Press(selector, key string) error {
	return wrapPlaywright("press "+key, selector, p.first(selector).Press(key))
}

func (p *playwrightPage) InputValue(selector string) (string, error) {
	value, err := p.first(selector).InputValue()
	return value, wrapPlaywright("input value", selector, err)
}

func (p *playwrightPage) IsChecked(selector string) (bool, error) {
	checked, err := p.first(selector).IsChecked()
	return checked, wrapPlaywright("is checked", selector, err)
}

func (p *playwrightPage) IsVisible(selector string) (bool, error) {
	visible, err := p.first(selector).IsVisible()
	return visible, wrapPlaywright("is visible", selector, err)
}

func (p *playwrightPage) Evaluate(script string) (interface{}, error) {
	result, err := p.page.Evaluate(script)
	return result, wrapPlaywright("evaluate", script, err)
}

func (p *playwrightPage) WaitForFunction(script string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	_, err := p.page.WaitForFunction(script, nil, playwright.PageWaitForFunctionOptions{
		Timeout: playwright.Float(milliseconds(timeout)),
	})
	return wrapPlaywright("wait for function", script, err)
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return wrapPlaywright("screenshot", path, err)
}

func (p *playwrightPage) Close() error {
	// Close everything even if an earlier step fails
	var errs []error
	if err := p.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("page: %w", err))
	}
	if err := p.context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("context: %w", err))
	}
	if err := p.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("browser: %w", err))
	}
	return errors.Join(errs...)
}
