package pwgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

// Clipboard wait bounds.
const (
	DefaultClipboardTimeout  = 1000 * time.Millisecond
	DefaultClipboardInterval = 50 * time.Millisecond
)

// ClipboardReader reads the current clipboard text.
type ClipboardReader interface {
	ReadClipboard(ctx context.Context) (string, error)
}

// ReadClipboardScript reads the clipboard from inside the page. The context
// must hold the clipboard-read permission.
const ReadClipboardScript = `async () => await navigator.clipboard.readText()`

// BrowserClipboard reads the clipboard through the page.
type BrowserClipboard struct {
	Page browser.Page
}

func (c BrowserClipboard) ReadClipboard(ctx context.Context) (string, error) {
	result, err := c.Page.Evaluate(ReadClipboardScript)
	if err != nil {
		return "", err
	}
	switch v := result.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("clipboard returned %T, want string", result)
	}
}

// SystemClipboard reads the operating system clipboard. Only meaningful for
// headed runs on the machine that hosts the browser.
type SystemClipboard struct{}

// ErrClipboardUnsupported is returned when no OS clipboard tool is available.
var ErrClipboardUnsupported = errors.New("system clipboard not supported on this host")

func (SystemClipboard) ReadClipboard(ctx context.Context) (string, error) {
	if clipboard.Unsupported {
		return "", ErrClipboardUnsupported
	}
	return clipboard.ReadAll()
}

// CopyVerifier checks that a copy control puts the current password on the
// clipboard.
type CopyVerifier struct {
	elements *Elements
	reader   ClipboardReader

	// PopulateTimeout bounds the wait for a non-empty password field
	PopulateTimeout time.Duration

	// Timeout and Interval bound the clipboard poll
	Timeout  time.Duration
	Interval time.Duration
}

func NewCopyVerifier(elements *Elements, reader ClipboardReader) *CopyVerifier {
	return &CopyVerifier{
		elements:        elements,
		reader:          reader,
		PopulateTimeout: harness.DefaultWaitTimeout,
		Timeout:         DefaultClipboardTimeout,
		Interval:        DefaultClipboardInterval,
	}
}

// Verify waits for the password field to be populated, clicks the
// control-th copy control and polls the clipboard until it holds the
// password. It returns the copied password.
//
// When the wait expires, a clipboard holding other text is an assertion
// Failure; an empty or unreadable clipboard is a timing Failure.
func (v *CopyVerifier) Verify(ctx context.Context, control int) (string, error) {
	var password string
	err := harness.Await(ctx, harness.WaitOptions{
		Timeout:     v.PopulateTimeout,
		Interval:    v.Interval,
		Description: "password field to be populated",
	}, func(ctx context.Context) (bool, error) {
		value, err := v.elements.Password.Value()
		if err != nil {
			return false, err
		}
		password = value
		return value != "", nil
	})
	if err != nil {
		return "", err
	}

	if err := v.elements.Copy.ClickNth(control); err != nil {
		return password, fmt.Errorf("click copy control %d: %w", control, err)
	}

	var last string
	var readErr error
	err = harness.Await(ctx, harness.WaitOptions{
		Timeout:     v.Timeout,
		Interval:    v.Interval,
		Description: "clipboard to hold the password",
	}, func(ctx context.Context) (bool, error) {
		last, readErr = v.reader.ReadClipboard(ctx)
		if readErr != nil {
			return false, nil
		}
		return last == password, nil
	})
	if err == nil {
		return password, nil
	}

	var failure *harness.Failure
	if !errors.As(err, &failure) || failure.Kind != harness.KindTiming {
		return password, err
	}
	if readErr == nil && last != "" {
		return password, harness.Assertion(
			fmt.Sprintf("copy control %d put other text on the clipboard", control),
			password, last,
		)
	}
	if readErr != nil {
		failure.WithDetail("read_error", readErr.Error())
	}
	failure.WithDetail("copy_control", control)
	return password, failure
}
