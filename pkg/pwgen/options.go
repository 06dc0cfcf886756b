package pwgen

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Length bounds and defaults of the generator page.
const (
	MinLength     = 6
	MaxLength     = 32
	DefaultLength = 6
)

// Class is one character class the generator can include.
type Class string

const (
	Lowercase Class = "lowercase"
	Uppercase Class = "uppercase"
	Numbers   Class = "numbers"
	Symbols   Class = "symbols"
)

// ClassOrder is the fixed order in which classes are toggled and reported.
var ClassOrder = []Class{Lowercase, Uppercase, Numbers, Symbols}

// Classes is the set of enabled character classes.
type Classes struct {
	Lowercase bool `json:"lowercase" yaml:"lowercase"`
	Uppercase bool `json:"uppercase" yaml:"uppercase"`
	Numbers   bool `json:"numbers" yaml:"numbers"`
	Symbols   bool `json:"symbols" yaml:"symbols"`
}

// DefaultClasses is the state of a freshly loaded page.
var DefaultClasses = Classes{Lowercase: true, Uppercase: true}

func (c Classes) Has(class Class) bool {
	switch class {
	case Lowercase:
		return c.Lowercase
	case Uppercase:
		return c.Uppercase
	case Numbers:
		return c.Numbers
	case Symbols:
		return c.Symbols
	}
	return false
}

// With returns c with class set to enabled.
func (c Classes) With(class Class, enabled bool) Classes {
	switch class {
	case Lowercase:
		c.Lowercase = enabled
	case Uppercase:
		c.Uppercase = enabled
	case Numbers:
		c.Numbers = enabled
	case Symbols:
		c.Symbols = enabled
	}
	return c
}

// Enabled lists the enabled classes in ClassOrder.
func (c Classes) Enabled() []Class {
	var enabled []Class
	for _, class := range ClassOrder {
		if c.Has(class) {
			enabled = append(enabled, class)
		}
	}
	return enabled
}

func (c Classes) Any() bool {
	return len(c.Enabled()) > 0
}

// String renders the set as "lowercase+numbers", or "none".
func (c Classes) String() string {
	enabled := c.Enabled()
	if len(enabled) == 0 {
		return "none"
	}
	parts := make([]string, len(enabled))
	for i, class := range enabled {
		parts[i] = string(class)
	}
	return strings.Join(parts, "+")
}

// Combinations returns the 15 non-empty class sets: singles, pairs, triples
// and all four.
func Combinations() []Classes {
	var singles, pairs, triples, all []Classes
	for mask := 1; mask < 16; mask++ {
		c := Classes{
			Lowercase: mask&1 != 0,
			Uppercase: mask&2 != 0,
			Numbers:   mask&4 != 0,
			Symbols:   mask&8 != 0,
		}
		switch len(c.Enabled()) {
		case 1:
			singles = append(singles, c)
		case 2:
			pairs = append(pairs, c)
		case 3:
			triples = append(triples, c)
		default:
			all = append(all, c)
		}
	}
	out := append(singles, pairs...)
	out = append(out, triples...)
	return append(out, all...)
}

// Options are the generator settings a password is checked against.
type Options struct {
	Classes
	Length int `json:"length" yaml:"length" validate:"min=6,max=32"`
}

// DefaultOptions returns the settings of a freshly loaded page.
func DefaultOptions() Options {
	return Options{Classes: DefaultClasses, Length: DefaultLength}
}

func (o Options) String() string {
	return fmt.Sprintf("%s, length %d", o.Classes, o.Length)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		opts := sl.Current().Interface().(Options)
		if !opts.Any() {
			sl.ReportError(opts.Classes, "Classes", "Classes", "anyclass", "")
		}
	}, Options{})
	return v
}

// Validate checks the length bounds and that at least one class is enabled.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid password options %s: %w", o, err)
	}
	return nil
}

// ClampLength applies the page's length bounds to n.
func ClampLength(n int) int {
	if n < MinLength {
		return MinLength
	}
	if n > MaxLength {
		return MaxLength
	}
	return n
}
