package harness

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Selector picks scenarios by tag. Patterns are globs ("smoke",
// "password_length_*").
type Selector struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewSelector compiles the include and exclude tag patterns.
func NewSelector(include, exclude []string) (*Selector, error) {
	s := &Selector{}

	for _, pattern := range include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid tag pattern '%s': %w", pattern, err)
		}
		s.include = append(s.include, g)
	}

	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude tag pattern '%s': %w", pattern, err)
		}
		s.exclude = append(s.exclude, g)
	}

	return s, nil
}

// Matches reports whether a scenario with tags is selected.
func (s *Selector) Matches(tags []string) bool {
	if s == nil {
		return true
	}

	// Excludes take precedence
	for _, pattern := range s.exclude {
		for _, tag := range tags {
			if pattern.Match(tag) {
				return false
			}
		}
	}

	// If no include patterns specified, select all (except excluded)
	if len(s.include) == 0 {
		return true
	}

	for _, pattern := range s.include {
		for _, tag := range tags {
			if pattern.Match(tag) {
				return true
			}
		}
	}

	return false
}

// Filter returns the selected scenarios in their original order.
func (s *Selector) Filter(scenarios []Scenario) []Scenario {
	selected := make([]Scenario, 0, len(scenarios))
	for _, scenario := range scenarios {
		if s.Matches(scenario.Tags) {
			selected = append(selected, scenario)
		}
	}
	return selected
}
