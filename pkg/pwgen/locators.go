package pwgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

// Element is the logical name of one control on the generator page.
type Element string

const (
	PasswordField     Element = "password_field"
	LengthInput       Element = "length_input"
	LowercaseCheckbox Element = "lowercase_checkbox"
	UppercaseCheckbox Element = "uppercase_checkbox"
	NumbersCheckbox   Element = "numbers_checkbox"
	SymbolsCheckbox   Element = "symbols_checkbox"
	GenerateButton    Element = "generate_button"
	CopyButton        Element = "copy_button"
	LengthSlider      Element = "length_slider"
)

// AllElements lists every element Resolve requires, in page order.
var AllElements = []Element{
	PasswordField,
	LengthInput,
	LowercaseCheckbox,
	UppercaseCheckbox,
	NumbersCheckbox,
	SymbolsCheckbox,
	GenerateButton,
	CopyButton,
	LengthSlider,
}

// Locator holds the selectors of one element. Target receives clicks and
// value reads; State, when set, is read for the checked state instead
// (the page styles its checkboxes through their labels).
type Locator struct {
	Target string
	State  string
}

// LocatorMap maps every element to its selectors.
type LocatorMap map[Element]Locator

// DefaultLocators returns the selectors matching the live generator page.
func DefaultLocators() LocatorMap {
	return LocatorMap{
		PasswordField:     {Target: `input[name="password"]`},
		LengthInput:       {Target: `input[name="passwordLength"]`},
		LowercaseCheckbox: {Target: `label[for="option-lowercase"]`, State: `input#option-lowercase`},
		UppercaseCheckbox: {Target: `label[for="option-uppercase"]`, State: `input#option-uppercase`},
		NumbersCheckbox:   {Target: `label[for="option-numbers"]`, State: `input#option-numbers`},
		SymbolsCheckbox:   {Target: `label[for="option-symbols"]`, State: `input#option-symbols`},
		GenerateButton:    {Target: `button[type="button"][title="Generate password"]`},
		CopyButton:        {Target: `button[type="button"][title="Copy password"]`},
		LengthSlider:      {Target: `input[type="range"]`},
	}
}

// Override returns a copy of m with the given selectors replaced. Empty
// fields keep the current selector. Unknown element names are an error.
func (m LocatorMap) Override(overrides map[string]Locator) (LocatorMap, error) {
	out := make(LocatorMap, len(m))
	for k, v := range m {
		out[k] = v
	}

	var unknown []string
	for name, loc := range overrides {
		element := Element(name)
		current, ok := out[element]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if loc.Target != "" {
			current.Target = loc.Target
		}
		if loc.State != "" {
			current.State = loc.State
		}
		out[element] = current
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown element(s) in selector overrides: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// Handle is one resolved element of a page. Actions target the first match.
type Handle struct {
	page    browser.Page
	name    Element
	locator Locator
}

func (h *Handle) Name() Element {
	return h.name
}

func (h *Handle) Selector() string {
	return h.locator.Target
}

func (h *Handle) Click() error {
	return h.page.Click(h.locator.Target)
}

// ClickNth clicks the index-th match; used for elements rendered more than once.
func (h *Handle) ClickNth(index int) error {
	return h.page.ClickNth(h.locator.Target, index)
}

func (h *Handle) Count() (int, error) {
	return h.page.Count(h.locator.Target)
}

func (h *Handle) Fill(value string) error {
	return h.page.Fill(h.locator.Target, value)
}

func (h *Handle) Press(key string) error {
	return h.page.Press(h.locator.Target, key)
}

func (h *Handle) Value() (string, error) {
	return h.page.InputValue(h.locator.Target)
}

func (h *Handle) Visible() (bool, error) {
	return h.page.IsVisible(h.locator.Target)
}

// Checked reads the State selector when present, the Target otherwise.
func (h *Handle) Checked() (bool, error) {
	selector := h.locator.State
	if selector == "" {
		selector = h.locator.Target
	}
	return h.page.IsChecked(selector)
}

// Elements is the resolved set of generator controls on one page.
type Elements struct {
	Page browser.Page

	Password  *Handle
	Length    *Handle
	Lowercase *Handle
	Uppercase *Handle
	Numbers   *Handle
	Symbols   *Handle
	Generate  *Handle
	Copy      *Handle
	Slider    *Handle
}

// Checkbox returns the handle of the checkbox controlling class.
func (e *Elements) Checkbox(class Class) *Handle {
	switch class {
	case Lowercase:
		return e.Lowercase
	case Uppercase:
		return e.Uppercase
	case Numbers:
		return e.Numbers
	case Symbols:
		return e.Symbols
	}
	return nil
}

// snapshotLimit caps the controls listed in a page-contract failure.
const snapshotLimit = 40

// Resolve checks that every locator in m matches at least one element of page
// and returns their handles. It does not wait. When elements are missing it
// returns a page-contract Failure naming all of them, with a summary of the
// controls the page does have.
func Resolve(page browser.Page, m LocatorMap) (*Elements, error) {
	var missing []string
	selectors := make(map[string]interface{})
	handles := make(map[Element]*Handle, len(AllElements))

	for _, element := range AllElements {
		loc, ok := m[element]
		if !ok || loc.Target == "" {
			missing = append(missing, string(element))
			continue
		}

		for _, selector := range []string{loc.Target, loc.State} {
			if selector == "" {
				continue
			}
			n, err := page.Count(selector)
			if err != nil {
				return nil, fmt.Errorf("locate %s: %w", element, err)
			}
			if n == 0 {
				missing = append(missing, string(element))
				selectors[string(element)] = selector
				break
			}
		}
		handles[element] = &Handle{page: page, name: element, locator: loc}
	}

	if len(missing) > 0 {
		failure := harness.PageContract(
			fmt.Sprintf("%d of %d page elements not found: %s", len(missing), len(AllElements), strings.Join(missing, ", ")),
			map[string]interface{}{
				"missing":   missing,
				"selectors": selectors,
				"url":       page.URL(),
			},
		)
		if snapshot := describePage(page); snapshot != "" {
			failure.WithDetail("page", snapshot)
		}
		return nil, failure
	}

	return &Elements{
		Page:      page,
		Password:  handles[PasswordField],
		Length:    handles[LengthInput],
		Lowercase: handles[LowercaseCheckbox],
		Uppercase: handles[UppercaseCheckbox],
		Numbers:   handles[NumbersCheckbox],
		Symbols:   handles[SymbolsCheckbox],
		Generate:  handles[GenerateButton],
		Copy:      handles[CopyButton],
		Slider:    handles[LengthSlider],
	}, nil
}

func describePage(page browser.Page) string {
	content, err := page.Content()
	if err != nil {
		return ""
	}
	snapshot, err := browser.SummarizeForm(content)
	if err != nil {
		return ""
	}
	return snapshot.Format(snapshotLimit)
}
