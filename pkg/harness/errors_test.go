package harness

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus Status
		wantKind   Kind
		wantKnown  bool
	}{
		{name: "success", err: nil, wantStatus: StatusPassed},
		{name: "assertion", err: Assertion("length", 18, 17), wantStatus: StatusFailed, wantKind: KindAssertion, wantKnown: true},
		{name: "wrapped assertion", err: fmt.Errorf("case 3: %w", Assertionf("no digits")), wantStatus: StatusFailed, wantKind: KindAssertion, wantKnown: true},
		{name: "page contract", err: PageContract("missing", nil), wantStatus: StatusBroken, wantKind: KindPageContract, wantKnown: true},
		{name: "timing", err: Timing("clipboard", nil), wantStatus: StatusBroken, wantKind: KindTiming, wantKnown: true},
		{name: "environment", err: Environment("launch", errors.New("no chrome")), wantStatus: StatusBroken, wantKind: KindEnvironment, wantKnown: true},
		{name: "driver timeout", err: fmt.Errorf("click: %w", browser.ErrTimeout), wantStatus: StatusBroken, wantKind: KindTiming, wantKnown: true},
		{name: "unclassified", err: errors.New("detached frame"), wantStatus: StatusBroken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, StatusOf(tt.err))
			kind, ok := KindOf(tt.err)
			assert.Equal(t, tt.wantKnown, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestFailureError(t *testing.T) {
	err := Assertion("password length", 18, 17)
	assert.Equal(t, "assertion: password length (expected 18, got 17)", err.Error())

	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	env := Environment("failed to load target page", cause)
	assert.Equal(t, "environment: failed to load target page: net::ERR_NAME_NOT_RESOLVED", env.Error())
	assert.True(t, errors.Is(env, cause))
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.Equal(t, "plain", Describe(errors.New("plain")))

	err := PageContract("2 elements missing", map[string]interface{}{
		"missing": "copy_button, length_slider",
		"url":     "https://example.test/",
	})
	desc := Describe(err)
	assert.Contains(t, desc, "[page_contract] 2 elements missing")
	assert.Contains(t, desc, "missing: copy_button, length_slider")
	assert.Less(t, strings.Index(desc, "missing:"), strings.Index(desc, "url:"), "details are sorted by key")

	desc = Describe(Assertion("clipboard", "abc", "abd"))
	assert.Contains(t, desc, "expected: abc")
	assert.Contains(t, desc, "actual:   abd")
}

func TestWithDetail(t *testing.T) {
	f := Timing("x", nil).WithDetail("attempts", 3)
	assert.Equal(t, 3, f.Details["attempts"])
}
