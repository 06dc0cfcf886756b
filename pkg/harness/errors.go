package harness

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
)

// Kind classifies why a scenario stopped.
type Kind string

const (
	// KindAssertion means an observed value diverged from the expected one.
	KindAssertion Kind = "assertion"

	// KindPageContract means the page markup no longer matches the locators.
	KindPageContract Kind = "page_contract"

	// KindTiming means a bounded wait expired before its condition held.
	KindTiming Kind = "timing"

	// KindEnvironment means the browser or session could not be provided.
	KindEnvironment Kind = "environment"
)

// Failure is the error every scenario reports when it stops early.
type Failure struct {
	Kind     Kind
	Message  string
	Expected interface{}
	Actual   interface{}
	Details  map[string]interface{}
	Err      error
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", f.Kind, f.Message)
	if f.Expected != nil || f.Actual != nil {
		fmt.Fprintf(&b, " (expected %v, got %v)", f.Expected, f.Actual)
	}
	if f.Err != nil {
		fmt.Fprintf(&b, ": %v", f.Err)
	}
	return b.String()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// WithDetail attaches a diagnostic key/value and returns f.
func (f *Failure) WithDetail(key string, value interface{}) *Failure {
	if f.Details == nil {
		f.Details = make(map[string]interface{})
	}
	f.Details[key] = value
	return f
}

// Assertion reports an expected/actual mismatch.
func Assertion(message string, expected, actual interface{}) *Failure {
	return &Failure{
		Kind:     KindAssertion,
		Message:  message,
		Expected: expected,
		Actual:   actual,
	}
}

// Assertionf reports a failed check that has no single expected value.
func Assertionf(format string, args ...interface{}) *Failure {
	return &Failure{Kind: KindAssertion, Message: fmt.Sprintf(format, args...)}
}

// PageContract reports markup that no longer matches the locators.
func PageContract(message string, details map[string]interface{}) *Failure {
	return &Failure{Kind: KindPageContract, Message: message, Details: details}
}

// Timing reports an expired bounded wait.
func Timing(message string, err error) *Failure {
	return &Failure{Kind: KindTiming, Message: message, Err: err}
}

// Environment reports a browser, context or navigation failure.
func Environment(message string, err error) *Failure {
	return &Failure{Kind: KindEnvironment, Message: message, Err: err}
}

// KindOf returns the kind of the first Failure in err's chain. Driver
// timeouts that were never classified count as timing failures.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind, true
	}
	if errors.Is(err, browser.ErrTimeout) {
		return KindTiming, true
	}
	return "", false
}

// Status is the outcome reported for a scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusBroken  Status = "broken"
	StatusSkipped Status = "skipped"
)

// StatusOf maps a scenario error to its reported status. Only assertion
// failures count as failed; anything else that stopped the scenario means
// the check itself could not be completed.
func StatusOf(err error) Status {
	if err == nil {
		return StatusPassed
	}
	if kind, ok := KindOf(err); ok && kind == KindAssertion {
		return StatusFailed
	}
	return StatusBroken
}

// Describe renders err over several lines for test logs and reports.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var failure *Failure
	if !errors.As(err, &failure) {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", failure.Kind, failure.Message)
	if failure.Expected != nil || failure.Actual != nil {
		fmt.Fprintf(&b, "\n  expected: %v\n  actual:   %v", failure.Expected, failure.Actual)
	}
	if failure.Err != nil {
		fmt.Fprintf(&b, "\n  cause: %v", failure.Err)
	}

	keys := make([]string, 0, len(failure.Details))
	for k := range failure.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, failure.Details[k])
	}
	return b.String()
}
