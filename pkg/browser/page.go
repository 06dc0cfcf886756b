package browser

import (
	"errors"
	"time"
)

var (
	// ErrTimeout marks a driver operation that hit its deadline.
	ErrTimeout = errors.New("browser: timeout")

	// ErrNoElement marks an indexed lookup that matched fewer elements.
	ErrNoElement = errors.New("browser: no such element")
)

// Key names accepted by Page.Press.
const (
	KeyArrowRight = "ArrowRight"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyEnter      = "Enter"
	KeyTab        = "Tab"
)

// Page is the set of browser primitives the suite depends on. Selectors are
// CSS selectors; actions target the first matching element unless stated
// otherwise.
//
// Scripts passed to Evaluate and WaitForFunction are JavaScript function
// expressions ("() => ...", "async () => ..."). They are invoked without
// arguments and promises are awaited.
type Page interface {
	Navigate(url string, opts NavigateOptions) error
	URL() string
	Title() (string, error)
	Content() (string, error)

	// Count returns how many elements match selector without waiting.
	Count(selector string) (int, error)

	Fill(selector, value string) error
	Click(selector string) error
	// ClickNth clicks the index-th match (zero based).
	ClickNth(selector string, index int) error
	Press(selector, key string) error

	InputValue(selector string) (string, error)
	IsChecked(selector string) (bool, error)
	// IsVisible reports visibility without waiting; a missing element is not visible.
	IsVisible(selector string) (bool, error)

	Evaluate(script string) (interface{}, error)
	WaitForFunction(script string, timeout time.Duration) error

	Screenshot(path string) error
	Close() error
}
