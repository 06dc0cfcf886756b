package browser

import (
	"fmt"
	"sync"
	"time"
)

// Session represents an active browser session with its associated resources.
// A Session is itself a Page; every call is forwarded to the driver page and
// refreshes LastUsedAt.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	// Driver is the backend that opened the session
	Driver DriverKind

	// Headless indicates if the browser is running in headless mode
	Headless bool

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	page Page

	mu         sync.Mutex
	lastUsedAt time.Time
	currentURL string
}

var _ Page = (*Session)(nil)

func newSession(name string, driver DriverKind, headless bool, page Page) *Session {
	now := time.Now()
	return &Session{
		Name:       name,
		Driver:     driver,
		Headless:   headless,
		CreatedAt:  now,
		page:       page,
		lastUsedAt: now,
		currentURL: "about:blank",
	}
}

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.mu.Lock()
	s.lastUsedAt = time.Now()
	s.mu.Unlock()
}

// LastUsedAt returns the time of the last operation on this session.
func (s *Session) LastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// CurrentURL returns the URL of the page after the last navigation or click.
func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL
}

func (s *Session) refreshURL() {
	url := s.page.URL()
	s.mu.Lock()
	s.currentURL = url
	s.mu.Unlock()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()
	if err := s.page.Navigate(url, opts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	s.refreshURL()
	return nil
}

// URL returns the current page URL.
func (s *Session) URL() string {
	return s.page.URL()
}

// Title returns the document title.
func (s *Session) Title() (string, error) {
	s.UpdateLastUsed()
	return s.page.Title()
}

// Content returns the serialized DOM.
func (s *Session) Content() (string, error) {
	s.UpdateLastUsed()
	return s.page.Content()
}

// Count returns how many elements match selector.
func (s *Session) Count(selector string) (int, error) {
	s.UpdateLastUsed()
	return s.page.Count(selector)
}

// Fill fills an input element with the specified value.
func (s *Session) Fill(selector, value string) error {
	s.UpdateLastUsed()
	if err := s.page.Fill(selector, value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// Click clicks the first element matching the selector.
func (s *Session) Click(selector string) error {
	s.UpdateLastUsed()
	if err := s.page.Click(selector); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	// Update current URL in case click caused navigation
	s.refreshURL()
	return nil
}

// ClickNth clicks the index-th element matching the selector.
func (s *Session) ClickNth(selector string, index int) error {
	s.UpdateLastUsed()
	if err := s.page.ClickNth(selector, index); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	s.refreshURL()
	return nil
}

// Press dispatches a key press on the element.
func (s *Session) Press(selector, key string) error {
	s.UpdateLastUsed()
	if err := s.page.Press(selector, key); err != nil {
		return fmt.Errorf("press %s failed: %w", key, err)
	}
	return nil
}

// InputValue returns the value of an input element.
func (s *Session) InputValue(selector string) (string, error) {
	s.UpdateLastUsed()
	return s.page.InputValue(selector)
}

// IsChecked reports whether a checkbox or radio is checked.
func (s *Session) IsChecked(selector string) (bool, error) {
	s.UpdateLastUsed()
	return s.page.IsChecked(selector)
}

// IsVisible reports whether the element is visible.
func (s *Session) IsVisible(selector string) (bool, error) {
	s.UpdateLastUsed()
	return s.page.IsVisible(selector)
}

// Evaluate runs a script function in the page and returns its result.
func (s *Session) Evaluate(script string) (interface{}, error) {
	s.UpdateLastUsed()
	result, err := s.page.Evaluate(script)
	if err != nil {
		return nil, fmt.Errorf("evaluate failed: %w", err)
	}
	return result, nil
}

// WaitForFunction waits until the predicate function returns a truthy value.
func (s *Session) WaitForFunction(script string, timeout time.Duration) error {
	s.UpdateLastUsed()
	if err := s.page.WaitForFunction(script, timeout); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

// Screenshot writes a full-page PNG to path.
func (s *Session) Screenshot(path string) error {
	s.UpdateLastUsed()
	return s.page.Screenshot(path)
}

// Close releases the page, its context and its browser.
func (s *Session) Close() error {
	return s.page.Close()
}
