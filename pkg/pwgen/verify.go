package pwgen

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

// Composition counts the characters of a password per class.
type Composition struct {
	Length    int `json:"length"`
	Lowercase int `json:"lowercase"`
	Uppercase int `json:"uppercase"`
	Digits    int `json:"digits"`
	Symbols   int `json:"symbols"`
}

// Analyze classifies every rune of password. Symbols are runes that are
// neither letters nor numbers; numbers other than decimal digits, such
// as ², count towards the length only.
func Analyze(password string) Composition {
	c := Composition{Length: utf8.RuneCountInString(password)}
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			c.Lowercase++
		case unicode.IsUpper(r):
			c.Uppercase++
		case unicode.IsDigit(r):
			c.Digits++
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			c.Symbols++
		}
	}
	return c
}

func (c Composition) String() string {
	return fmt.Sprintf("length %d (lowercase %d, uppercase %d, digits %d, symbols %d)",
		c.Length, c.Lowercase, c.Uppercase, c.Digits, c.Symbols)
}

// Check is one independent password property.
type Check struct {
	Name     string
	Passed   bool
	Expected string
	Actual   string
}

// Verification holds every property check of one password.
type Verification struct {
	Password    string
	Options     Options
	Composition Composition
	Checks      []Check
}

// Verify checks password against opts: exact rune length, and for every
// class at least one character when enabled and none when disabled.
func Verify(password string, opts Options) Verification {
	comp := Analyze(password)
	v := Verification{Password: password, Options: opts, Composition: comp}

	v.Checks = append(v.Checks, Check{
		Name:     "length",
		Passed:   comp.Length == opts.Length,
		Expected: fmt.Sprint(opts.Length),
		Actual:   fmt.Sprint(comp.Length),
	})
	v.Checks = append(v.Checks,
		presence("lowercase", opts.Lowercase, comp.Lowercase),
		presence("uppercase", opts.Uppercase, comp.Uppercase),
		presence("digits", opts.Numbers, comp.Digits),
		presence("symbols", opts.Symbols, comp.Symbols),
	)
	return v
}

func presence(name string, enabled bool, count int) Check {
	c := Check{Name: name, Actual: fmt.Sprint(count)}
	if enabled {
		c.Expected = ">=1"
		c.Passed = count >= 1
	} else {
		c.Expected = "0"
		c.Passed = count == 0
	}
	return c
}

// OK reports whether every check passed.
func (v Verification) OK() bool {
	return len(v.Failed()) == 0
}

// Failed returns the checks that did not pass.
func (v Verification) Failed() []Check {
	var failed []Check
	for _, c := range v.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// Err returns nil when every check passed, and an assertion Failure listing
// the failed checks otherwise.
func (v Verification) Err() error {
	failed := v.Failed()
	if len(failed) == 0 {
		return nil
	}

	names := make([]string, len(failed))
	details := make(map[string]interface{}, len(failed)+1)
	for i, c := range failed {
		names[i] = c.Name
		details[c.Name] = fmt.Sprintf("expected %s, got %s", c.Expected, c.Actual)
	}
	details["password"] = v.Password

	failure := harness.Assertion(
		fmt.Sprintf("password violates %s", strings.Join(names, ", ")),
		v.Options.String(),
		v.Composition.String(),
	)
	failure.Details = details
	return failure
}
