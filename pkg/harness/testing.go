package harness

import (
	"context"
	"testing"
)

// RunT runs scenarios as subtests of t with the same lifecycle as Runner:
// one page per scenario, a per-scenario timeout and unconditional release.
// Parallel > 1 marks the subtests parallel; at most Parallel of them hold a
// page at once whatever go test -parallel allows. Assertion failures fail
// the subtest; every other failure is reported as a fatal error as well,
// with its kind in the message. Pages still open once every subtest is
// done fail t.
func RunT(t *testing.T, provider Provider, scenarios []Scenario, cfg RunnerConfig) {
	t.Helper()

	if err := checkNames(scenarios); err != nil {
		t.Fatalf("invalid scenario set: %v", err)
	}
	if cfg.ScenarioTimeout <= 0 {
		cfg.ScenarioTimeout = DefaultScenarioTimeout
	}

	selected := cfg.Selector.Filter(scenarios)
	if len(selected) == 0 {
		t.Skip("no scenarios selected")
	}

	if auditor, ok := provider.(Auditor); ok {
		t.Cleanup(func() {
			for _, info := range auditor.Outstanding() {
				t.Errorf("session %s still open after the run (%s)", info.Name, info.CurrentURL)
			}
		})
	}

	parallel := cfg.Parallel
	if parallel < 1 {
		parallel = 1
	}
	slots := make(chan struct{}, parallel)

	for _, s := range selected {
		t.Run(s.Name, func(t *testing.T) {
			if parallel > 1 {
				t.Parallel()
			}
			// registered first so the slot is freed after the page is released
			slots <- struct{}{}
			t.Cleanup(func() { <-slots })
			t.Logf("%s %s %v", s.CaseID, s.Title, s.Tags)

			ctx, cancel := context.WithTimeout(context.Background(), cfg.ScenarioTimeout)
			t.Cleanup(cancel)

			page, err := provider.Open(ctx, s.Name)
			if err != nil {
				t.Fatalf("%s\n%s", StatusOf(err), Describe(err))
			}
			t.Cleanup(func() {
				if err := provider.Release(s.Name); err != nil {
					t.Logf("release: %v", err)
				}
			})

			if err := execute(ctx, s, page); err != nil {
				t.Fatalf("%s\n%s", StatusOf(err), Describe(err))
			}
		})
	}
}
