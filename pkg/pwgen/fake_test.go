package pwgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

const (
	fakeLower   = "abcdefghijklmnopqrstuvwxyz"
	fakeUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	fakeDigits  = "0123456789"
	fakeSymbols = "!@#$%^&*()_+-="
)

// fakeGenerator simulates the generator page behind DefaultLocators. The
// knobs break one behaviour each so scenarios can be checked for the failure
// they report.
type fakeGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	sel LocatorMap

	title     string
	url       string
	length    int
	classes   Classes
	password  string
	clipboard string
	copies    int
	closed    bool

	missing       map[Element]bool
	stuckPassword bool
	fixedLength   int
	leak          Class
	allowNone     bool
	copyText      string
	copyDisabled  bool
	clipboardErr  error
	clicks        []string
}

func newFakeGenerator() *fakeGenerator {
	g := &fakeGenerator{
		rng:     rand.New(rand.NewSource(1)),
		sel:     DefaultLocators(),
		title:   "Random Password Generator | Create Strong Passwords | Security.org",
		url:     "https://www.security.org/password-generator/",
		length:  DefaultLength,
		classes: DefaultClasses,
		copies:  2,
		missing: make(map[Element]bool),
	}
	g.regenerate()
	return g
}

// element maps a selector back to the element it locates. State selectors
// map to the same element as their target.
func (g *fakeGenerator) element(selector string) (Element, bool) {
	for element, loc := range g.sel {
		if loc.Target == selector || (loc.State != "" && loc.State == selector) {
			if g.missing[element] {
				return "", false
			}
			return element, true
		}
	}
	return "", false
}

func (g *fakeGenerator) class(element Element) (Class, bool) {
	switch element {
	case LowercaseCheckbox:
		return Lowercase, true
	case UppercaseCheckbox:
		return Uppercase, true
	case NumbersCheckbox:
		return Numbers, true
	case SymbolsCheckbox:
		return Symbols, true
	}
	return "", false
}

func (g *fakeGenerator) regenerate() {
	if g.stuckPassword && g.password != "" {
		return
	}

	classes := g.classes
	if g.leak != "" {
		classes = classes.With(g.leak, true)
	}
	var sets []string
	for _, class := range classes.Enabled() {
		switch class {
		case Lowercase:
			sets = append(sets, fakeLower)
		case Uppercase:
			sets = append(sets, fakeUpper)
		case Numbers:
			sets = append(sets, fakeDigits)
		case Symbols:
			sets = append(sets, fakeSymbols)
		}
	}
	if len(sets) == 0 {
		g.password = ""
		return
	}

	length := g.length
	if g.fixedLength > 0 {
		length = g.fixedLength
	}

	previous := g.password
	for {
		pool := strings.Join(sets, "")
		out := make([]byte, length)
		for i := range out {
			out[i] = pool[g.rng.Intn(len(pool))]
		}
		for i, pos := range g.rng.Perm(length)[:len(sets)] {
			out[pos] = sets[i][g.rng.Intn(len(sets[i]))]
		}
		g.password = string(out)
		if g.password != previous {
			return
		}
	}
}

func (g *fakeGenerator) setLength(n int) {
	g.length = ClampLength(n)
	g.regenerate()
}

func (g *fakeGenerator) Navigate(url string, opts browser.NavigateOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.url = url
	return nil
}

func (g *fakeGenerator) URL() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.url
}

func (g *fakeGenerator) Title() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.title, nil
}

func (g *fakeGenerator) Content() (string, error) {
	return `<html><head><title>Fake</title></head><body><form><input name="password"></form></body></html>`, nil
}

func (g *fakeGenerator) Count(selector string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	element, ok := g.element(selector)
	if !ok {
		return 0, nil
	}
	if element == CopyButton {
		return g.copies, nil
	}
	return 1, nil
}

func (g *fakeGenerator) Fill(selector, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	element, ok := g.element(selector)
	if !ok {
		return fmt.Errorf("fill %q: %w", selector, browser.ErrNoElement)
	}
	if element != LengthInput {
		return fmt.Errorf("fill %q: element is not editable", selector)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return errors.New("Cannot type text into input[type=number]")
	}
	g.setLength(n)
	return nil
}

func (g *fakeGenerator) Click(selector string) error {
	return g.ClickNth(selector, 0)
}

func (g *fakeGenerator) ClickNth(selector string, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	element, ok := g.element(selector)
	if !ok {
		return fmt.Errorf("click %q: %w", selector, browser.ErrNoElement)
	}
	g.clicks = append(g.clicks, string(element))

	if class, ok := g.class(element); ok {
		next := g.classes.With(class, !g.classes.Has(class))
		if !next.Any() && !g.allowNone {
			return nil
		}
		g.classes = next
		g.regenerate()
		return nil
	}

	switch element {
	case GenerateButton:
		g.regenerate()
	case CopyButton:
		if index >= g.copies {
			return fmt.Errorf("click %q #%d: %w", selector, index, browser.ErrNoElement)
		}
		switch {
		case g.copyDisabled:
		case g.copyText != "":
			g.clipboard = g.copyText
		default:
			g.clipboard = g.password
		}
	}
	return nil
}

func (g *fakeGenerator) Press(selector, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	element, ok := g.element(selector)
	if !ok {
		return fmt.Errorf("press %q: %w", selector, browser.ErrNoElement)
	}
	if element != LengthSlider {
		return nil
	}
	switch key {
	case browser.KeyArrowRight, browser.KeyArrowUp:
		g.setLength(g.length + 1)
	case browser.KeyArrowLeft, browser.KeyArrowDown:
		g.setLength(g.length - 1)
	}
	return nil
}

func (g *fakeGenerator) InputValue(selector string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	element, ok := g.element(selector)
	if !ok {
		return "", fmt.Errorf("input value %q: %w", selector, browser.ErrNoElement)
	}
	switch element {
	case PasswordField:
		return g.password, nil
	case LengthInput, LengthSlider:
		return strconv.Itoa(g.length), nil
	}
	return "", nil
}

func (g *fakeGenerator) IsChecked(selector string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	element, ok := g.element(selector)
	if !ok {
		return false, fmt.Errorf("is checked %q: %w", selector, browser.ErrNoElement)
	}
	class, ok := g.class(element)
	if !ok {
		return false, fmt.Errorf("is checked %q: not a checkbox", selector)
	}
	return g.classes.Has(class), nil
}

func (g *fakeGenerator) IsVisible(selector string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.element(selector)
	return ok, nil
}

func (g *fakeGenerator) Evaluate(script string) (interface{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if script == ReadClipboardScript {
		if g.clipboardErr != nil {
			return nil, g.clipboardErr
		}
		return g.clipboard, nil
	}
	return nil, fmt.Errorf("unexpected script %q", script)
}

func (g *fakeGenerator) WaitForFunction(script string, timeout time.Duration) error { return nil }
func (g *fakeGenerator) Screenshot(path string) error                             { return nil }

func (g *fakeGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *fakeGenerator) state() (Classes, int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.classes, g.length, g.password
}

// generatorProvider hands every scenario a fresh fakeGenerator, tuned by
// configure when set.
type generatorProvider struct {
	mu        sync.Mutex
	configure func(*fakeGenerator)
	pages     map[string]*fakeGenerator
}

func newGeneratorProvider(configure func(*fakeGenerator)) *generatorProvider {
	return &generatorProvider{configure: configure, pages: make(map[string]*fakeGenerator)}
}

func (p *generatorProvider) Open(ctx context.Context, name string) (browser.Page, error) {
	g := newFakeGenerator()
	if p.configure != nil {
		p.configure(g)
		g.mu.Lock()
		g.regenerate()
		g.mu.Unlock()
	}
	p.mu.Lock()
	p.pages[name] = g
	p.mu.Unlock()
	return g, nil
}

func (p *generatorProvider) Release(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("no page for %s", name)
	}
	return g.Close()
}

// fastSettings keeps failing waits short.
func fastSettings() Settings {
	s := DefaultSettings()
	s.WaitTimeout = 200 * time.Millisecond
	s.PollInterval = 5 * time.Millisecond
	s.ClipboardTimeout = 100 * time.Millisecond
	s.ClipboardInterval = 5 * time.Millisecond
	return s
}

func mustResolve(g *fakeGenerator) *Elements {
	e, err := Resolve(g, DefaultLocators())
	if err != nil {
		panic(err)
	}
	return e
}

var _ harness.Provider = (*generatorProvider)(nil)
