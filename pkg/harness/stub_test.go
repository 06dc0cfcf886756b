package harness

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
)

// stubPage is a browser.Page whose navigation, readiness and screenshots can
// be made to fail.
type stubPage struct {
	mu          sync.Mutex
	url         string
	navErr      error
	waitErr     error
	closed      bool
	screenshots []string
}

func (p *stubPage) Navigate(url string, opts browser.NavigateOptions) error {
	if p.navErr != nil {
		return p.navErr
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *stubPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *stubPage) Title() (string, error)                     { return "stub", nil }
func (p *stubPage) Content() (string, error)                   { return "<html></html>", nil }
func (p *stubPage) Count(selector string) (int, error)         { return 1, nil }
func (p *stubPage) Fill(selector, value string) error          { return nil }
func (p *stubPage) Click(selector string) error                { return nil }
func (p *stubPage) ClickNth(selector string, index int) error  { return nil }
func (p *stubPage) Press(selector, key string) error           { return nil }
func (p *stubPage) InputValue(selector string) (string, error) { return "", nil }
func (p *stubPage) IsChecked(selector string) (bool, error)    { return false, nil }
func (p *stubPage) IsVisible(selector string) (bool, error)    { return true, nil }

func (p *stubPage) Evaluate(script string) (interface{}, error) { return nil, nil }

func (p *stubPage) WaitForFunction(script string, timeout time.Duration) error {
	return p.waitErr
}

func (p *stubPage) Screenshot(path string) error {
	p.mu.Lock()
	p.screenshots = append(p.screenshots, path)
	p.mu.Unlock()
	return os.WriteFile(path, []byte("png"), 0644)
}

func (p *stubPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("already closed")
	}
	p.closed = true
	return nil
}

// stubDriver opens stubPages built by newPage.
type stubDriver struct {
	mu      sync.Mutex
	newPage func() *stubPage
	opened  []*stubPage
	opts    []browser.SessionOptions
	openErr error
}

func (d *stubDriver) Kind() browser.DriverKind { return browser.DriverPlaywright }

func (d *stubDriver) Open(opts browser.SessionOptions) (browser.Page, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	page := &stubPage{url: "about:blank"}
	if d.newPage != nil {
		page = d.newPage()
	}
	d.opened = append(d.opened, page)
	d.opts = append(d.opts, opts)
	return page, nil
}

func (d *stubDriver) Stop() error { return nil }

// fakeProvider hands out stubPages directly and records the lifecycle.
type fakeProvider struct {
	mu       sync.Mutex
	openErr  error
	pages    map[string]*stubPage
	released []string
	active   int
	peak     int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{pages: make(map[string]*stubPage)}
}

func (p *fakeProvider) Open(ctx context.Context, name string) (browser.Page, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	page := &stubPage{url: "https://example.test/"}
	p.pages[name] = page
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	return page, nil
}

func (p *fakeProvider) Release(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active--
	p.released = append(p.released, name)
	return p.pages[name].Close()
}

func (p *fakeProvider) page(name string) *stubPage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pages[name]
}
