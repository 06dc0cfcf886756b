package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/logging"
)

// DefaultScenarioTimeout bounds one scenario when RunnerConfig leaves it unset.
const DefaultScenarioTimeout = 2 * time.Minute

// Reporter receives scenario outcomes as they happen.
type Reporter interface {
	ScenarioStarted(s Scenario)
	ScenarioFinished(r Result)
}

// Result is the recorded outcome of one scenario.
type Result struct {
	Name        string                 `json:"name"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	CaseID      string                 `json:"case_id,omitempty"`
	Tags        []string               `json:"tags"`
	Status      Status                 `json:"status"`
	Kind        Kind                   `json:"failure_kind,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Expected    string                 `json:"expected,omitempty"`
	Actual      string                 `json:"actual,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Screenshot  string                 `json:"screenshot,omitempty"`
	Start       time.Time              `json:"start"`
	Duration    time.Duration          `json:"duration"`
}

func newResult(s Scenario, err error, start time.Time) Result {
	r := Result{
		Name:        s.Name,
		Title:       s.Title,
		Description: s.Description,
		CaseID:      s.CaseID,
		Tags:        s.Tags,
		Status:      StatusOf(err),
		Start:       start,
		Duration:    time.Since(start),
	}
	if err == nil {
		return r
	}

	r.Message = err.Error()
	if kind, ok := KindOf(err); ok {
		r.Kind = kind
	}
	var failure *Failure
	if errors.As(err, &failure) {
		r.Message = failure.Message
		if failure.Err != nil {
			r.Message += ": " + failure.Err.Error()
		}
		if failure.Expected != nil {
			r.Expected = fmt.Sprint(failure.Expected)
		}
		if failure.Actual != nil {
			r.Actual = fmt.Sprint(failure.Actual)
		}
		r.Details = failure.Details
	}
	return r
}

func skippedResult(s Scenario, reason string) Result {
	return Result{
		Name:        s.Name,
		Title:       s.Title,
		Description: s.Description,
		CaseID:      s.CaseID,
		Tags:        s.Tags,
		Status:      StatusSkipped,
		Message:     reason,
		Start:       time.Now(),
	}
}

// Summary aggregates a whole run.
type Summary struct {
	RunID     string        `json:"run_id"`
	TargetURL string        `json:"target_url"`
	Driver    string        `json:"driver"`
	Browser   string        `json:"browser"`
	Start     time.Time     `json:"start"`
	Duration  time.Duration `json:"duration"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Broken    int           `json:"broken"`
	Skipped   int           `json:"skipped"`
	Results   []Result      `json:"results"`

	// Leaked names sessions still open after every scenario finished
	Leaked []string `json:"leaked_sessions,omitempty"`
}

// Total returns the number of scenarios in the run.
func (s *Summary) Total() int {
	return len(s.Results)
}

// OK reports whether every selected scenario passed.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Broken == 0 && s.Skipped == 0
}

func (s *Summary) tally() {
	s.Passed, s.Failed, s.Broken, s.Skipped = 0, 0, 0, 0
	for _, r := range s.Results {
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusBroken:
			s.Broken++
		case StatusSkipped:
			s.Skipped++
		}
	}
}

// RunnerConfig configures scheduling and failure capture.
type RunnerConfig struct {
	// Parallel bounds concurrently running scenarios (minimum 1)
	Parallel int

	// ScenarioTimeout bounds each scenario including provisioning
	ScenarioTimeout time.Duration

	// ScreenshotDir receives a full-page screenshot of every scenario that
	// did not pass; empty disables screenshots
	ScreenshotDir string

	// Selector filters scenarios by tag; nil selects everything
	Selector *Selector

	// Run metadata copied into the summary
	TargetURL string
	Driver    string
	Browser   string
}

// Runner executes scenarios, each on its own page from the provider.
type Runner struct {
	provider  Provider
	cfg       RunnerConfig
	reporters []Reporter
	logger    *logging.Logger
}

// NewRunner creates a runner.
func NewRunner(provider Provider, cfg RunnerConfig, logger *logging.Logger, reporters ...Reporter) *Runner {
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	if cfg.ScenarioTimeout <= 0 {
		cfg.ScenarioTimeout = DefaultScenarioTimeout
	}
	if logger == nil {
		logger = logging.Discard("runner")
	}
	return &Runner{provider: provider, cfg: cfg, reporters: reporters, logger: logger}
}

// Run executes the selected scenarios and returns their summary. Scenario
// failures never produce an error; only an invalid scenario set does.
// Scenarios not started before ctx is done are reported as skipped.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Summary, error) {
	if err := checkNames(scenarios); err != nil {
		return nil, err
	}
	selected := r.cfg.Selector.Filter(scenarios)

	summary := &Summary{
		RunID:     logging.GetRunID(),
		TargetURL: r.cfg.TargetURL,
		Driver:    r.cfg.Driver,
		Browser:   r.cfg.Browser,
		Start:     time.Now(),
		Results:   make([]Result, len(selected)),
	}
	r.logger.Infof("running %d of %d scenarios (parallel=%d)", len(selected), len(scenarios), r.cfg.Parallel)

	var g errgroup.Group
	g.SetLimit(r.cfg.Parallel)
	for i, s := range selected {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				summary.Results[i] = skippedResult(s, "run cancelled")
				r.finished(summary.Results[i])
				return nil
			}
			summary.Results[i] = r.runOne(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	summary.Leaked = r.audit()
	summary.Duration = time.Since(summary.Start)
	summary.tally()
	r.logger.Infof("run finished in %s: %d passed, %d failed, %d broken, %d skipped",
		summary.Duration.Round(time.Millisecond), summary.Passed, summary.Failed, summary.Broken, summary.Skipped)
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, s Scenario) Result {
	start := time.Now()
	for _, rep := range r.reporters {
		rep.ScenarioStarted(s)
	}
	log := r.logger.With(s.Name)

	sctx, cancel := context.WithTimeout(ctx, r.cfg.ScenarioTimeout)
	defer cancel()

	var screenshot string
	page, err := r.provider.Open(sctx, s.Name)
	if err == nil {
		err = execute(sctx, s, page)
		if err != nil && r.cfg.ScreenshotDir != "" {
			screenshot = r.capture(log, s.Name, page)
		}
		if releaseErr := r.provider.Release(s.Name); releaseErr != nil {
			log.Warnf("release: %v", releaseErr)
		}
	}

	result := newResult(s, err, start)
	result.Screenshot = screenshot
	if err != nil {
		log.Errorf("%s: %s", result.Status, Describe(err))
	} else {
		log.Infof("passed in %s", result.Duration.Round(time.Millisecond))
	}
	r.finished(result)
	return result
}

// audit names the sessions the provider still holds open.
func (r *Runner) audit() []string {
	auditor, ok := r.provider.(Auditor)
	if !ok {
		return nil
	}
	var leaked []string
	for _, info := range auditor.Outstanding() {
		r.logger.Warnf("session %s still open (%s, last used %s ago)",
			info.Name, info.CurrentURL, time.Since(info.LastUsedAt).Round(time.Millisecond))
		leaked = append(leaked, info.Name)
	}
	return leaked
}

func (r *Runner) finished(result Result) {
	for _, rep := range r.reporters {
		rep.ScenarioFinished(result)
	}
}

// execute runs the scenario body, converting panics into errors and
// abandoning bodies that outlive ctx. An abandoned body fails on its next
// page call once the page is released.
func execute(ctx context.Context, s Scenario, page browser.Page) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("scenario panicked: %v", p)
			}
		}()
		done <- s.Run(ctx, page)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return Timing("scenario did not finish in time", ctx.Err())
	}
}

func (r *Runner) capture(log *logging.Logger, name string, page browser.Page) string {
	if err := os.MkdirAll(r.cfg.ScreenshotDir, 0755); err != nil {
		log.Warnf("screenshot dir: %v", err)
		return ""
	}
	path := filepath.Join(r.cfg.ScreenshotDir, ScreenshotName(name))
	if err := page.Screenshot(path); err != nil {
		log.Warnf("screenshot: %v", err)
		return ""
	}
	return path
}

// ScreenshotName turns a scenario name into a file name.
func ScreenshotName(name string) string {
	replacer := strings.NewReplacer("/", "__", " ", "_", ":", "_", "\\", "_")
	return replacer.Replace(name) + ".png"
}
