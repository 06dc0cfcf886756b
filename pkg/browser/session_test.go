package browser

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPage is a Page that records the calls it receives.
type recordingPage struct {
	url      string
	calls    []string
	fillErr  error
	closeErr error
	closed   bool
}

func newRecordingPage() *recordingPage {
	return &recordingPage{url: "about:blank"}
}

func (p *recordingPage) record(format string, args ...interface{}) {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *recordingPage) Navigate(url string, opts NavigateOptions) error {
	p.record("navigate %s %s", url, opts.WaitUntil)
	p.url = url
	return nil
}

func (p *recordingPage) URL() string              { return p.url }
func (p *recordingPage) Title() (string, error)   { return "title", nil }
func (p *recordingPage) Content() (string, error) { return "<html></html>", nil }

func (p *recordingPage) Count(selector string) (int, error) {
	p.record("count %s", selector)
	return 1, nil
}

func (p *recordingPage) Fill(selector, value string) error {
	p.record("fill %s %s", selector, value)
	return p.fillErr
}

func (p *recordingPage) Click(selector string) error {
	p.record("click %s", selector)
	return nil
}

func (p *recordingPage) ClickNth(selector string, index int) error {
	p.record("click %s[%d]", selector, index)
	return nil
}

func (p *recordingPage) Press(selector, key string) error {
	p.record("press %s %s", selector, key)
	return nil
}

func (p *recordingPage) InputValue(selector string) (string, error) { return "6", nil }
func (p *recordingPage) IsChecked(selector string) (bool, error)    { return true, nil }
func (p *recordingPage) IsVisible(selector string) (bool, error)    { return true, nil }

func (p *recordingPage) Evaluate(script string) (interface{}, error) {
	p.record("evaluate")
	return "ok", nil
}

func (p *recordingPage) WaitForFunction(script string, timeout time.Duration) error {
	p.record("wait %s", timeout)
	return nil
}

func (p *recordingPage) Screenshot(path string) error {
	p.record("screenshot %s", path)
	return nil
}

func (p *recordingPage) Close() error {
	p.closed = true
	return p.closeErr
}

func TestSessionForwardsCalls(t *testing.T) {
	page := newRecordingPage()
	session := newSession("s", DriverPlaywright, true, page)

	require.NoError(t, session.Navigate("https://example.com", NavigateOptions{WaitUntil: "load"}))
	require.NoError(t, session.Fill("#a", "12"))
	require.NoError(t, session.Click("#b"))
	require.NoError(t, session.ClickNth("#c", 1))
	require.NoError(t, session.Press("#d", KeyArrowRight))
	require.NoError(t, session.WaitForFunction("() => true", time.Second))

	assert.Equal(t, []string{
		"navigate https://example.com load",
		"fill #a 12",
		"click #b",
		"click #c[1]",
		"press #d ArrowRight",
		"wait 1s",
	}, page.calls)
	assert.Equal(t, "https://example.com", session.CurrentURL())
	assert.Equal(t, "https://example.com", session.URL())
}

func TestSessionWrapsErrors(t *testing.T) {
	page := newRecordingPage()
	page.fillErr = fmt.Errorf("fill %q: %w", "#a", ErrTimeout)
	session := newSession("s", DriverPlaywright, true, page)

	err := session.Fill("#a", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill failed")
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestSessionUpdatesLastUsed(t *testing.T) {
	session := newSession("s", DriverPlaywright, true, newRecordingPage())
	before := session.LastUsedAt()

	time.Sleep(2 * time.Millisecond)
	_, err := session.InputValue("#a")
	require.NoError(t, err)

	assert.True(t, session.LastUsedAt().After(before))
}

func TestWrapPlaywrightMapsTimeout(t *testing.T) {
	assert.NoError(t, wrapPlaywright("click", "#a", nil))

	err := wrapPlaywright("click", "#a", fmt.Errorf("waiting for locator: %w", playwright.ErrTimeout))
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, playwright.ErrTimeout))

	err = wrapPlaywright("click", "#a", errors.New("detached"))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), `click "#a"`)
}

func TestSessionOptionsWithDefaults(t *testing.T) {
	opts := SessionOptions{}.withDefaults()
	assert.Equal(t, BrowserChromium, opts.Browser)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	require.NotNil(t, opts.Viewport)
	assert.Equal(t, DefaultViewportHeight, opts.Viewport.Height)

	custom := SessionOptions{Browser: BrowserWebKit, Timeout: time.Second, Viewport: &Viewport{Width: 10, Height: 20}}.withDefaults()
	assert.Equal(t, BrowserWebKit, custom.Browser)
	assert.Equal(t, time.Second, custom.Timeout)
	assert.Equal(t, 10, custom.Viewport.Width)

	assert.Equal(t, 1500.0, milliseconds(1500*time.Millisecond))
}

func TestJSStringQuotes(t *testing.T) {
	assert.Equal(t, `"input[name=\"password\"]"`, jsString(`input[name="password"]`))
}
