package pwgen

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

// Tags attached to the scenarios.
const (
	TagSmoke             = "smoke"
	TagRegression        = "regression"
	TagPasswordGenerator = "password_generator"
	TagLengthInput       = "password_length_input_field"
	TagCheckboxes        = "password_options_combinations_with_checkboxes"
	TagSlider            = "password_length_slider"
	TagGenerateButton    = "generate_password_button"
	TagCopyButton        = "copy_password_button"
)

// ExpectedTitle must appear in the page title.
const ExpectedTitle = "Random Password Generator"

// ClipboardSource selects where copied text is read from.
type ClipboardSource string

const (
	ClipboardBrowser ClipboardSource = "browser"
	ClipboardSystem  ClipboardSource = "system"
)

// Settings tune the scenarios to a page and an environment.
type Settings struct {
	Locators  LocatorMap
	Clipboard ClipboardSource

	// WaitTimeout and PollInterval bound every wait for page state
	WaitTimeout  time.Duration
	PollInterval time.Duration

	// ClipboardTimeout and ClipboardInterval bound the clipboard poll
	ClipboardTimeout  time.Duration
	ClipboardInterval time.Duration
}

// DefaultSettings targets the live page with the browser clipboard.
func DefaultSettings() Settings {
	return Settings{
		Locators:          DefaultLocators(),
		Clipboard:         ClipboardBrowser,
		WaitTimeout:       harness.DefaultWaitTimeout,
		PollInterval:      harness.DefaultPollInterval,
		ClipboardTimeout:  DefaultClipboardTimeout,
		ClipboardInterval: DefaultClipboardInterval,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Locators == nil {
		s.Locators = d.Locators
	}
	if s.Clipboard == "" {
		s.Clipboard = d.Clipboard
	}
	if s.WaitTimeout <= 0 {
		s.WaitTimeout = d.WaitTimeout
	}
	if s.PollInterval <= 0 {
		s.PollInterval = d.PollInterval
	}
	if s.ClipboardTimeout <= 0 {
		s.ClipboardTimeout = d.ClipboardTimeout
	}
	if s.ClipboardInterval <= 0 {
		s.ClipboardInterval = d.ClipboardInterval
	}
	return s
}

func (s Settings) wait(description string) harness.WaitOptions {
	return harness.WaitOptions{Timeout: s.WaitTimeout, Interval: s.PollInterval, Description: description}
}

func (s Settings) clipboard(page browser.Page) ClipboardReader {
	if s.Clipboard == ClipboardSystem {
		return SystemClipboard{}
	}
	return BrowserClipboard{Page: page}
}

func tags(extra ...string) []string {
	return append([]string{TagPasswordGenerator, TagRegression}, extra...)
}

// Scenarios returns the canonical scenario set for the generator page.
func Scenarios(settings Settings) []harness.Scenario {
	s := settings.withDefaults()

	var all []harness.Scenario
	all = append(all, harness.Scenario{
		Name:        "smoke",
		Title:       "Password generator loads",
		Description: "Smoke test: the password field is visible and the page title names the generator",
		CaseID:      "TC001",
		Tags:        tags(TagSmoke),
		Run:         s.smoke,
	})

	all = append(all, harness.Expand(harness.Scenario{
		Name:        "length_input",
		Title:       "Password length input sets generated password length",
		Description: "Entering a length in the length input regenerates a password of exactly that length",
		CaseID:      "TC002",
		Tags:        tags(TagLengthInput),
	}, lengthCases(), s.lengthInput)...)

	all = append(all, harness.Expand(harness.Scenario{
		Name:        "length_input_invalid",
		Title:       "Invalid password length input",
		Description: "Out of range lengths clamp to the bounds and non-numeric input falls back to the minimum",
		CaseID:      "TC003",
		Tags:        tags(TagLengthInput),
	}, invalidLengthCases(), s.invalidLengthInput)...)

	all = append(all, harness.Scenario{
		Name:        "default_options",
		Title:       "Default checkbox setup and password content",
		Description: "A fresh page has lowercase and uppercase checked and a 6 character password made of letters only",
		CaseID:      "TC004",
		Tags:        tags(TagCheckboxes),
		Run:         s.defaultOptions,
	})

	all = append(all, harness.Expand(harness.Scenario{
		Name:        "option_combinations",
		Title:       "Checkbox combinations for password content",
		Description: "For every non-empty set of character classes the password holds each enabled class and nothing else",
		CaseID:      "TC005",
		Tags:        tags(TagCheckboxes),
	}, combinationCases(), s.optionCombination)...)

	all = append(all, harness.Scenario{
		Name:        "last_option_remains_checked",
		Title:       "At least one checkbox remains selected",
		Description: "Unchecking every option leaves the last checked one standing; clicking it changes nothing",
		CaseID:      "TC006",
		Tags:        tags(TagCheckboxes),
		Run:         s.lastOptionRemains,
	})

	all = append(all, harness.Expand(harness.Scenario{
		Name:        "slider_right",
		Title:       "Slider moving right for length",
		Description: "Each ArrowRight on the slider increases the length by one",
		CaseID:      "TC007",
		Tags:        tags(TagSlider),
	}, sliderRightCases(), s.slider)...)

	all = append(all, harness.Expand(harness.Scenario{
		Name:        "slider_left",
		Title:       "Slider moving left for length",
		Description: "Each ArrowLeft on the slider decreases the length by one, starting from the maximum",
		CaseID:      "TC008",
		Tags:        tags(TagSlider),
	}, sliderLeftCases(), s.slider)...)

	all = append(all, harness.Expand(harness.Scenario{
		Name:        "slider_up_down",
		Title:       "Slider arrow up and down for length",
		Description: "ArrowUp increases and ArrowDown decreases the length by one per press",
		CaseID:      "TC009",
		Tags:        tags(TagSlider),
	}, sliderUpDownCases(), s.slider)...)

	all = append(all, harness.Expand(harness.Scenario{
		Name:        "slider_bounds",
		Title:       "Slider clamps at the length bounds",
		Description: "The slider cannot go below 6 or above 32",
		CaseID:      "TC010",
		Tags:        tags(TagSlider),
	}, sliderBoundsCases(), s.slider)...)

	all = append(all, harness.Scenario{
		Name:        "generate_button",
		Title:       "Generate password button",
		Description: "Clicking generate replaces the password with a different one",
		CaseID:      "TC011",
		Tags:        tags(TagGenerateButton),
		Run:         s.generate,
	})

	all = append(all, harness.Scenario{
		Name:        "combined_options",
		Title:       "Length and options combined",
		Description: "Length 18 with numbers enabled and uppercase disabled yields lowercase letters and digits only",
		CaseID:      "TC012",
		Tags:        tags(),
		Run:         s.combinedOptions,
	})

	all = append(all, harness.Scenario{
		Name:        "copy_button",
		Title:       "Copy password button",
		Description: "Every copy control puts the exact current password on the clipboard",
		CaseID:      "TC013",
		Tags:        tags(TagCopyButton),
		Run:         s.copyPassword,
	})

	return all
}

// Case tables

type invalidLength struct {
	Raw      string
	Expected int
}

type keyPresses struct {
	Key string
	N   int
}

type sliderMove struct {
	Presses  []keyPresses
	Expected int
}

func lengthCases() []harness.Case[int] {
	var cases []harness.Case[int]
	for _, n := range []int{6, 12, 18, 24, 32} {
		cases = append(cases, harness.Case[int]{Name: strconv.Itoa(n), Input: n})
	}
	return cases
}

func invalidLengthCases() []harness.Case[invalidLength] {
	var cases []harness.Case[invalidLength]
	for _, c := range []struct{ name, raw string }{
		{"below_minimum", "5"},
		{"above_maximum", "33"},
		{"non_numeric", "abc"},
		{"negative", "-4"},
	} {
		cases = append(cases, harness.Case[invalidLength]{
			Name:  c.name,
			Input: invalidLength{Raw: c.raw, Expected: effectiveLength(c.raw)},
		})
	}
	return cases
}

// effectiveLength is the length the page settles on after raw is typed into
// the length input. Anything that is not an integer falls back to the minimum.
func effectiveLength(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return MinLength
	}
	return ClampLength(n)
}

func combinationCases() []harness.Case[Classes] {
	var cases []harness.Case[Classes]
	for _, c := range Combinations() {
		cases = append(cases, harness.Case[Classes]{Name: c.String(), Input: c})
	}
	return cases
}

func right(n int) keyPresses { return keyPresses{Key: browser.KeyArrowRight, N: n} }
func left(n int) keyPresses  { return keyPresses{Key: browser.KeyArrowLeft, N: n} }
func up(n int) keyPresses    { return keyPresses{Key: browser.KeyArrowUp, N: n} }
func down(n int) keyPresses  { return keyPresses{Key: browser.KeyArrowDown, N: n} }

func sliderRightCases() []harness.Case[sliderMove] {
	var cases []harness.Case[sliderMove]
	for _, steps := range []int{1, 6, 12, 18, 26} {
		cases = append(cases, harness.Case[sliderMove]{
			Name:  fmt.Sprintf("%d_steps", steps),
			Input: sliderMove{Presses: []keyPresses{right(steps)}, Expected: MinLength + steps},
		})
	}
	return cases
}

func sliderLeftCases() []harness.Case[sliderMove] {
	toMax := right(MaxLength - MinLength)
	var cases []harness.Case[sliderMove]
	for _, steps := range []int{1, 6, 12, 26} {
		cases = append(cases, harness.Case[sliderMove]{
			Name:  fmt.Sprintf("%d_steps", steps),
			Input: sliderMove{Presses: []keyPresses{toMax, left(steps)}, Expected: MaxLength - steps},
		})
	}
	return cases
}

func sliderUpDownCases() []harness.Case[sliderMove] {
	return []harness.Case[sliderMove]{
		{Name: "up_3", Input: sliderMove{Presses: []keyPresses{up(3)}, Expected: 9}},
		{Name: "up_10_down_2", Input: sliderMove{Presses: []keyPresses{up(10), down(2)}, Expected: 14}},
	}
}

func sliderBoundsCases() []harness.Case[sliderMove] {
	return []harness.Case[sliderMove]{
		{Name: "left_at_minimum", Input: sliderMove{Presses: []keyPresses{left(1)}, Expected: MinLength}},
		{Name: "right_past_maximum", Input: sliderMove{Presses: []keyPresses{right(40)}, Expected: MaxLength}},
	}
}

// Shared steps

// open resolves the page elements once the password field has rendered. A
// field that never renders still goes through Resolve so the failure names
// every missing element, unless the scenario itself was cancelled.
func (s Settings) open(ctx context.Context, page browser.Page) (*Elements, error) {
	selector := s.Locators[PasswordField].Target
	err := harness.Await(ctx, s.wait("password field to render"), func(ctx context.Context) (bool, error) {
		n, err := page.Count(selector)
		return n > 0, err
	})
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	return Resolve(page, s.Locators)
}

// settle polls the password field until accept holds and returns the last
// value read. An expired wait is not an error once the field holds a value;
// callers assert on what the page settled on.
func (s Settings) settle(ctx context.Context, e *Elements, description string, accept func(string) bool) (string, error) {
	var last string
	err := harness.Await(ctx, s.wait(description), func(ctx context.Context) (bool, error) {
		value, err := e.Password.Value()
		if err != nil {
			return false, err
		}
		last = value
		return value != "" && accept(value), nil
	})
	if err == nil {
		return last, nil
	}
	if kind, _ := harness.KindOf(err); kind == harness.KindTiming && last != "" {
		return last, nil
	}
	return last, err
}

func anyPassword(string) bool { return true }

func runeLength(n int) func(string) bool {
	return func(v string) bool { return utf8.RuneCountInString(v) == n }
}

func satisfies(opts Options) func(string) bool {
	return func(v string) bool { return Verify(v, opts).OK() }
}

// regenerate clicks generate and waits for a password different from old.
func (s Settings) regenerate(ctx context.Context, e *Elements, old string, accept func(string) bool) (string, error) {
	if err := e.Generate.Click(); err != nil {
		return "", err
	}
	password, err := s.settle(ctx, e, "a new password", func(v string) bool {
		return v != old && accept(v)
	})
	if err != nil {
		return password, err
	}
	if password == old {
		return password, harness.Assertion("generate produced a new password", "a password other than "+old, password)
	}
	return password, nil
}

// checkOptions rejects options no page state can satisfy. The error is left
// unclassified so the scenario reports broken rather than failed.
func checkOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("cannot verify password: %w", err)
	}
	return nil
}

func expectEqual(what string, want, got interface{}) error {
	if want != got {
		return harness.Assertion(what, want, got)
	}
	return nil
}

// Scenario bodies

func (s Settings) smoke(ctx context.Context, page browser.Page) error {
	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	err = harness.Await(ctx, s.wait("password field to be visible"), func(ctx context.Context) (bool, error) {
		return e.Password.Visible()
	})
	if kind, _ := harness.KindOf(err); kind == harness.KindTiming {
		return harness.Assertion("password field visible", true, false)
	} else if err != nil {
		return err
	}

	title, err := page.Title()
	if err != nil {
		return err
	}
	if !strings.Contains(title, ExpectedTitle) {
		return harness.Assertion("page title", "containing "+strconv.Quote(ExpectedTitle), title)
	}
	return nil
}

func (s Settings) lengthInput(ctx context.Context, page browser.Page, length int) error {
	opts := Options{Classes: DefaultClasses, Length: length}
	if err := checkOptions(opts); err != nil {
		return err
	}

	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	rejected, err := NewLengthControl(e).Set(strconv.Itoa(length))
	if err != nil {
		return err
	}
	if rejected {
		return harness.Assertion("length input accepts a numeric value", length, "rejected")
	}

	password, err := s.settle(ctx, e, fmt.Sprintf("a %d character password", length), runeLength(length))
	if err != nil {
		return err
	}
	return Verify(password, opts).Err()
}

func (s Settings) invalidLengthInput(ctx context.Context, page browser.Page, in invalidLength) error {
	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	old, err := s.settle(ctx, e, "the initial password", anyPassword)
	if err != nil {
		return err
	}

	rejected, err := NewLengthControl(e).Set(in.Raw)
	if err != nil {
		return err
	}

	password, err := s.regenerate(ctx, e, old, runeLength(in.Expected))
	if err != nil {
		return err
	}
	if n := utf8.RuneCountInString(password); n != in.Expected {
		return harness.Assertion(fmt.Sprintf("effective length after entering %q", in.Raw), in.Expected, n).
			WithDetail("input_rejected", rejected).
			WithDetail("password", password)
	}
	return nil
}

func (s Settings) defaultOptions(ctx context.Context, page browser.Page) error {
	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	for _, class := range ClassOrder {
		visible, err := e.Checkbox(class).Visible()
		if err != nil {
			return err
		}
		if !visible {
			return harness.Assertion(fmt.Sprintf("%s checkbox visible", class), true, false)
		}
	}

	state, err := NewReconciler(e).State()
	if err != nil {
		return err
	}
	if err := expectEqual("default checkbox state", DefaultClasses.String(), state.String()); err != nil {
		return err
	}

	password, err := s.settle(ctx, e, "the default password", anyPassword)
	if err != nil {
		return err
	}
	return Verify(password, DefaultOptions()).Err()
}

func (s Settings) optionCombination(ctx context.Context, page browser.Page, target Classes) error {
	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	outcome, err := NewReconciler(e).Apply(target)
	if err != nil {
		return err
	}
	if !outcome.Reached() {
		return harness.Assertion("checkbox state after reconciling", target.String(), outcome.After.String()).
			WithDetail("rejected", fmt.Sprint(outcome.Rejected()))
	}

	length, err := NewLengthControl(e).Value()
	if err != nil {
		return err
	}
	opts := Options{Classes: target, Length: length}
	if err := checkOptions(opts); err != nil {
		return err
	}

	password, err := s.settle(ctx, e, "a password matching "+target.String(), satisfies(opts))
	if err != nil {
		return err
	}
	return Verify(password, opts).Err()
}

func (s Settings) lastOptionRemains(ctx context.Context, page browser.Page) error {
	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	r := NewReconciler(e)
	state, err := r.State()
	if err != nil {
		return err
	}
	checked := state.Enabled()
	if len(checked) == 0 {
		return harness.Assertionf("no option is checked on load")
	}

	for _, class := range checked[:len(checked)-1] {
		t, _, err := r.Toggle(class)
		if err != nil {
			return err
		}
		if t.After {
			return harness.Assertion(fmt.Sprintf("%s checkbox unchecked", class), false, true)
		}
	}

	last := checked[len(checked)-1]
	t, after, err := r.Toggle(last)
	if err != nil {
		return err
	}
	if !t.After {
		return harness.Assertion(fmt.Sprintf("%s checkbox remains checked as the only option", last), true, false)
	}
	return expectEqual("options after clicking the last checked one", Classes{}.With(last, true).String(), after.String())
}

func (s Settings) slider(ctx context.Context, page browser.Page, move sliderMove) error {
	opts := Options{Classes: DefaultClasses, Length: move.Expected}
	if err := checkOptions(opts); err != nil {
		return err
	}

	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	lc := NewLengthControl(e)
	for _, p := range move.Presses {
		if err := lc.Step(p.Key, p.N); err != nil {
			return err
		}
	}

	password, err := s.settle(ctx, e, fmt.Sprintf("a %d character password", move.Expected), runeLength(move.Expected))
	if err != nil {
		return err
	}

	position, err := lc.SliderValue()
	if err != nil {
		return err
	}
	if err := expectEqual("slider position", move.Expected, position); err != nil {
		return err
	}
	return Verify(password, opts).Err()
}

func (s Settings) generate(ctx context.Context, page browser.Page) error {
	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	old, err := s.settle(ctx, e, "the initial password", anyPassword)
	if err != nil {
		return err
	}
	password, err := s.regenerate(ctx, e, old, anyPassword)
	if err != nil {
		return err
	}
	return Verify(password, DefaultOptions()).Err()
}

func (s Settings) combinedOptions(ctx context.Context, page browser.Page) error {
	opts := Options{Classes: Classes{Lowercase: true, Numbers: true}, Length: 18}
	if err := checkOptions(opts); err != nil {
		return err
	}

	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	rejected, err := NewLengthControl(e).Set(strconv.Itoa(opts.Length))
	if err != nil {
		return err
	}
	if rejected {
		return harness.Assertion("length input accepts a numeric value", opts.Length, "rejected")
	}

	outcome, err := NewReconciler(e).Apply(opts.Classes)
	if err != nil {
		return err
	}
	if !outcome.Reached() {
		return harness.Assertion("checkbox state after reconciling", opts.Classes.String(), outcome.After.String())
	}

	old, err := e.Password.Value()
	if err != nil {
		return err
	}
	password, err := s.regenerate(ctx, e, old, satisfies(opts))
	if err != nil {
		return err
	}
	return Verify(password, opts).Err()
}

func (s Settings) copyPassword(ctx context.Context, page browser.Page) error {
	e, err := s.open(ctx, page)
	if err != nil {
		return err
	}

	controls, err := e.Copy.Count()
	if err != nil {
		return err
	}

	verifier := NewCopyVerifier(e, s.clipboard(page))
	verifier.PopulateTimeout = s.WaitTimeout
	verifier.Timeout = s.ClipboardTimeout
	verifier.Interval = s.ClipboardInterval

	for i := 0; i < controls; i++ {
		// A fresh password per control proves each one copies the current value
		if i > 0 {
			old, err := e.Password.Value()
			if err != nil {
				return err
			}
			if _, err := s.regenerate(ctx, e, old, anyPassword); err != nil {
				return err
			}
		}
		if _, err := verifier.Verify(ctx, i); err != nil {
			return err
		}
	}
	return nil
}
