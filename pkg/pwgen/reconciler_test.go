package pwgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestReconcilerReachesEveryNonEmptyTarget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := drawNonEmptyClasses(t, "start")
		target := drawNonEmptyClasses(t, "target")

		g := newFakeGenerator()
		g.classes = start
		r := NewReconciler(mustResolve(g))

		outcome, err := r.Apply(target)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if !outcome.Reached() {
			t.Fatalf("from %s to %s ended at %s (rejected %v)", start, target, outcome.After, outcome.Rejected())
		}
		if len(outcome.Rejected()) != 0 {
			t.Fatalf("unexpected rejected toggles %v", outcome.Rejected())
		}
		if got, _, _ := g.state(); got != target {
			t.Fatalf("page holds %s, want %s", got, target)
		}
	})
}

func TestReconcilerEmptyTargetKeepsOneClass(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := drawNonEmptyClasses(t, "start")

		g := newFakeGenerator()
		g.classes = start
		outcome, err := NewReconciler(mustResolve(g)).Apply(Classes{})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}

		enabled := start.Enabled()
		last := enabled[len(enabled)-1]
		if outcome.After != (Classes{}).With(last, true) {
			t.Fatalf("from %s ended at %s, want only %s", start, outcome.After, last)
		}
		if rejected := outcome.Rejected(); len(rejected) != 1 || rejected[0] != last {
			t.Fatalf("rejected %v, want [%s]", rejected, last)
		}
	})
}

func TestReconcilerOrder(t *testing.T) {
	g := newFakeGenerator()
	r := NewReconciler(mustResolve(g))

	// lowercase+uppercase to numbers only: enable first, then disable
	outcome, err := r.Apply(Classes{Numbers: true})
	require.NoError(t, err)
	require.True(t, outcome.Reached())

	var order []Class
	for _, toggle := range outcome.Toggles {
		order = append(order, toggle.Class)
	}
	assert.Equal(t, []Class{Numbers, Lowercase, Uppercase}, order)
	assert.Equal(t, []string{"numbers_checkbox", "lowercase_checkbox", "uppercase_checkbox"}, g.clicks)
}

func TestReconcilerNoOp(t *testing.T) {
	g := newFakeGenerator()
	outcome, err := NewReconciler(mustResolve(g)).Apply(DefaultClasses)
	require.NoError(t, err)
	assert.True(t, outcome.Reached())
	assert.Empty(t, outcome.Toggles)
	assert.Empty(t, g.clicks)
}

func TestReconcilerToggle(t *testing.T) {
	g := newFakeGenerator()
	r := NewReconciler(mustResolve(g))

	toggle, state, err := r.Toggle(Lowercase)
	require.NoError(t, err)
	assert.Equal(t, Toggle{Class: Lowercase, Want: false, Before: true, After: false}, toggle)
	assert.Equal(t, Classes{Uppercase: true}, state)

	toggle, state, err = r.Toggle(Uppercase)
	require.NoError(t, err)
	assert.True(t, toggle.Rejected)
	assert.True(t, toggle.After)
	assert.Equal(t, Classes{Uppercase: true}, state)
}

// A page that lets every box be cleared is observed, not assumed.
func TestReconcilerObservesPermissivePage(t *testing.T) {
	g := newFakeGenerator()
	g.allowNone = true
	r := NewReconciler(mustResolve(g))

	outcome, err := r.Apply(Classes{})
	require.NoError(t, err)
	assert.True(t, outcome.Reached())
	assert.Equal(t, Classes{}, outcome.After)
}
