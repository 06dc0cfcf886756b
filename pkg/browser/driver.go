package browser

import (
	"fmt"
)

// Driver opens pages on one automation backend.
type Driver interface {
	// Kind identifies the backend.
	Kind() DriverKind

	// Open launches a browser, opens an isolated context with the requested
	// permissions and returns its page. Closing the page releases all three.
	Open(opts SessionOptions) (Page, error)

	// Stop releases the backend itself.
	Stop() error
}

// NewDriver starts the backend named by kind.
func NewDriver(kind DriverKind, opts InitOptions) (Driver, error) {
	switch kind {
	case DriverPlaywright, "":
		driver, err := newPlaywrightDriver(opts)
		if err != nil {
			return nil, err
		}
		return driver, nil
	case DriverChromedp:
		return newChromedpDriver(opts), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s (must be %q or %q)", kind, DriverPlaywright, DriverChromedp)
	}
}
