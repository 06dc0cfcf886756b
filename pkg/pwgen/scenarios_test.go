package pwgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

func TestScenarioCatalogue(t *testing.T) {
	scenarios := Scenarios(DefaultSettings())
	require.Len(t, scenarios, 43)

	names := make(map[string]bool)
	perCase := make(map[string]int)
	for _, s := range scenarios {
		assert.False(t, names[s.Name], "duplicate scenario %s", s.Name)
		names[s.Name] = true
		perCase[s.CaseID]++

		assert.NotNil(t, s.Run, s.Name)
		assert.True(t, s.HasTag(TagPasswordGenerator), s.Name)
		assert.True(t, s.HasTag(TagRegression), s.Name)
	}

	assert.Equal(t, map[string]int{
		"TC001": 1, "TC002": 5, "TC003": 4, "TC004": 1, "TC005": 15, "TC006": 1,
		"TC007": 5, "TC008": 4, "TC009": 2, "TC010": 2, "TC011": 1, "TC012": 1, "TC013": 1,
	}, perCase)

	assert.True(t, names["length_input/18"])
	assert.True(t, names["option_combinations/lowercase+numbers"])
	assert.True(t, names["slider_bounds/right_past_maximum"])
}

func TestSettingsDefaults(t *testing.T) {
	s := Settings{}.withDefaults()
	assert.Equal(t, DefaultSettings().WaitTimeout, s.WaitTimeout)
	assert.Equal(t, ClipboardBrowser, s.Clipboard)
	assert.Equal(t, DefaultLocators(), s.Locators)

	g := newFakeGenerator()
	assert.IsType(t, BrowserClipboard{}, s.clipboard(g))
	s.Clipboard = ClipboardSystem
	assert.IsType(t, SystemClipboard{}, s.clipboard(g))
}

func TestScenariosPassAgainstGenerator(t *testing.T) {
	harness.RunT(t, newGeneratorProvider(nil), Scenarios(fastSettings()), harness.RunnerConfig{Parallel: 4})
}

func TestScenariosReportPageFaults(t *testing.T) {
	tests := []struct {
		name      string
		scenario  string
		configure func(*fakeGenerator)
		status    harness.Status
		kind      harness.Kind
		message   string
	}{
		{
			name:      "wrong title",
			scenario:  "smoke",
			configure: func(g *fakeGenerator) { g.title = "Passphrase Generator" },
			status:    harness.StatusFailed,
			message:   "page title",
		},
		{
			name:      "missing control",
			scenario:  "smoke",
			configure: func(g *fakeGenerator) { g.missing[GenerateButton] = true },
			status:    harness.StatusBroken,
			kind:      harness.KindPageContract,
			message:   "1 of 9 page elements not found: generate_button",
		},
		{
			name:      "length ignored",
			scenario:  "length_input/18",
			configure: func(g *fakeGenerator) { g.fixedLength = 6 },
			status:    harness.StatusFailed,
			message:   "password violates length",
		},
		{
			name:      "clamping missing",
			scenario:  "length_input_invalid/above_maximum",
			configure: func(g *fakeGenerator) { g.fixedLength = 33 },
			status:    harness.StatusFailed,
			message:   `effective length after entering "33"`,
		},
		{
			name:      "digits leak into letters",
			scenario:  "default_options",
			configure: func(g *fakeGenerator) { g.leak = Numbers },
			status:    harness.StatusFailed,
			message:   "password violates digits",
		},
		{
			name:      "symbols leak into a combination",
			scenario:  "option_combinations/lowercase+numbers",
			configure: func(g *fakeGenerator) { g.leak = Symbols },
			status:    harness.StatusFailed,
			message:   "password violates symbols",
		},
		{
			name:      "every option can be cleared",
			scenario:  "last_option_remains_checked",
			configure: func(g *fakeGenerator) { g.allowNone = true },
			status:    harness.StatusFailed,
			message:   "uppercase checkbox remains checked as the only option",
		},
		{
			name:      "generate does nothing",
			scenario:  "generate_button",
			configure: func(g *fakeGenerator) { g.stuckPassword = true },
			status:    harness.StatusFailed,
			message:   "generate produced a new password",
		},
		{
			name:      "copy puts other text",
			scenario:  "copy_button",
			configure: func(g *fakeGenerator) { g.copyText = "hunter2" },
			status:    harness.StatusFailed,
			message:   "copy control 0 put other text on the clipboard",
		},
		{
			name:      "copy does nothing",
			scenario:  "copy_button",
			configure: func(g *fakeGenerator) { g.copyDisabled = true },
			status:    harness.StatusBroken,
			kind:      harness.KindTiming,
			message:   "timed out waiting for clipboard to hold the password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var selected []harness.Scenario
			for _, s := range Scenarios(fastSettings()) {
				if s.Name == tt.scenario {
					selected = append(selected, s)
				}
			}
			require.Len(t, selected, 1)

			runner := harness.NewRunner(newGeneratorProvider(tt.configure), harness.RunnerConfig{}, nil)
			summary, err := runner.Run(context.Background(), selected)
			require.NoError(t, err)
			require.Len(t, summary.Results, 1)

			result := summary.Results[0]
			assert.Equal(t, tt.status, result.Status, result.Message)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, result.Kind)
			}
			assert.Contains(t, result.Message, tt.message)
		})
	}
}

func TestInvalidLengthCasesFollowClamping(t *testing.T) {
	want := map[string]int{"below_minimum": 6, "above_maximum": 32, "non_numeric": 6, "negative": 6}
	for _, c := range invalidLengthCases() {
		assert.Equal(t, want[c.Name], c.Input.Expected, c.Name)
	}
	assert.Equal(t, 18, effectiveLength("18"))
	assert.Equal(t, MinLength, effectiveLength(""))
}

func TestScenariosRejectUnsatisfiableOptions(t *testing.T) {
	s := fastSettings()
	tests := []struct {
		name string
		run  func(g *fakeGenerator) error
	}{
		{
			name: "length above maximum",
			run:  func(g *fakeGenerator) error { return s.lengthInput(context.Background(), g, 40) },
		},
		{
			name: "slider below minimum",
			run: func(g *fakeGenerator) error {
				return s.slider(context.Background(), g, sliderMove{Presses: []keyPresses{left(1)}, Expected: 3})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGenerator()
			err := tt.run(g)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid password options")
			assert.Equal(t, harness.StatusBroken, harness.StatusOf(err))
			_, classified := harness.KindOf(err)
			assert.False(t, classified)
			assert.Empty(t, g.clicks)
			_, length, _ := g.state()
			assert.Equal(t, DefaultLength, length)
		})
	}
}

func TestOpenStopsOnCancellation(t *testing.T) {
	g := newFakeGenerator()
	g.missing[PasswordField] = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastSettings().open(ctx, g)
	require.Error(t, err)
	kind, _ := harness.KindOf(err)
	assert.Equal(t, harness.KindTiming, kind)
}
