package harness

import (
	"context"
	"fmt"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
)

// Scenario is one independent check against a freshly provisioned page.
// Title, Description, CaseID and Tags are reporting metadata only.
type Scenario struct {
	// Name identifies the scenario; it names its session and artifacts
	Name string

	Title       string
	Description string
	CaseID      string
	Tags        []string

	// Run performs the check. It owns page for its whole duration.
	Run func(ctx context.Context, page browser.Page) error
}

// HasTag reports whether the scenario carries tag.
func (s Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Case is one row of a parametrized scenario.
type Case[T any] struct {
	Name  string
	Input T
}

// Expand turns a table of cases into one scenario per row. Each scenario
// inherits base's metadata, gets "<base>/<case>" as its name and runs body
// with the row's input.
func Expand[T any](base Scenario, cases []Case[T], body func(ctx context.Context, page browser.Page, input T) error) []Scenario {
	scenarios := make([]Scenario, 0, len(cases))
	for _, c := range cases {
		input := c.Input
		s := base
		s.Name = base.Name + "/" + c.Name
		s.Title = fmt.Sprintf("%s [%s]", base.Title, c.Name)
		s.Tags = append([]string(nil), base.Tags...)
		s.Run = func(ctx context.Context, page browser.Page) error {
			return body(ctx, page, input)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios
}

// checkNames rejects empty and duplicate scenario names.
func checkNames(scenarios []Scenario) error {
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenario with title %q has no name", s.Title)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		if s.Run == nil {
			return fmt.Errorf("scenario %q has no body", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
