package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

// Level represents the console verbosity level
type Level int

const (
	// LevelQuiet shows only failures, warnings and the final summary
	LevelQuiet Level = iota
	// LevelNormal shows one line per scenario (default)
	LevelNormal
	// LevelVerbose adds scenario starts and expected/actual values
	LevelVerbose
	// LevelDebug adds failure details
	LevelDebug
)

// ParseLevel converts a verbosity name to a Level; unknown names are normal.
func ParseLevel(level string) Level {
	switch level {
	case "quiet":
		return LevelQuiet
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	default:
		return LevelNormal
	}
}

// Console prints run progress for humans. It implements harness.Reporter
// and is safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	level  Level
	writer io.Writer
}

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer, level Level) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{level: level, writer: w}
}

func (c *Console) printf(at Level, format string, args ...interface{}) {
	if c.level < at {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, format, args...)
}

// Header prints a prominent header message
func (c *Console) Header(message string) {
	rule := strings.Repeat("=", 70)
	c.printf(LevelNormal, "\n%s\n%s\n%s\n", headerStyle.Render(rule), headerStyle.Render("  "+message), headerStyle.Render(rule))
}

func (c *Console) Infof(format string, args ...interface{}) {
	c.printf(LevelNormal, "%s\n", infoStyle.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) Warningf(format string, args ...interface{}) {
	c.printf(LevelQuiet, "%s\n", brokenStyle.Render("⚠ Warning: "+fmt.Sprintf(format, args...)))
}

func (c *Console) Errorf(format string, args ...interface{}) {
	c.printf(LevelQuiet, "%s\n", failedStyle.Render("✗ Error: "+fmt.Sprintf(format, args...)))
}

func (c *Console) Verbosef(format string, args ...interface{}) {
	c.printf(LevelVerbose, "%s\n", mutedStyle.Render("→ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Debugf(format string, args ...interface{}) {
	c.printf(LevelDebug, "%s\n", mutedStyle.Render("[DEBUG] "+fmt.Sprintf(format, args...)))
}

// ScenarioStarted implements harness.Reporter.
func (c *Console) ScenarioStarted(s harness.Scenario) {
	c.Verbosef("%s %s", s.CaseID, s.Name)
}

// ScenarioFinished implements harness.Reporter.
func (c *Console) ScenarioFinished(r harness.Result) {
	duration := r.Duration.Round(time.Millisecond)

	switch r.Status {
	case harness.StatusPassed:
		c.printf(LevelNormal, "  %s %s %s\n", passedStyle.Render("✓"), r.Name, mutedStyle.Render(duration.String()))
		return
	case harness.StatusSkipped:
		c.printf(LevelNormal, "  %s %s %s\n", brokenStyle.Render("-"), r.Name, mutedStyle.Render(r.Message))
		return
	}

	mark, style := "✗", failedStyle
	if r.Status == harness.StatusBroken {
		mark, style = "!", brokenStyle
	}
	kind := string(r.Kind)
	if kind == "" {
		kind = string(r.Status)
	}
	c.printf(LevelQuiet, "  %s %s %s\n", style.Render(mark), r.Name, mutedStyle.Render(fmt.Sprintf("[%s] %s", kind, duration)))
	c.printf(LevelQuiet, "      %s\n", r.Message)

	if r.Expected != "" || r.Actual != "" {
		c.printf(LevelVerbose, "      expected: %s\n      actual:   %s\n", r.Expected, r.Actual)
	}
	if r.Screenshot != "" {
		c.printf(LevelVerbose, "      screenshot: %s\n", r.Screenshot)
	}
	if len(r.Details) > 0 {
		keys := make([]string, 0, len(r.Details))
		for k := range r.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.printf(LevelDebug, "      %s: %v\n", k, r.Details[k])
		}
	}
}

// Summary prints the final run summary
func (c *Console) Summary(s *harness.Summary) {
	rule := strings.Repeat("=", 70)
	c.printf(LevelQuiet, "\n%s\n%s\n%s\n", headerStyle.Render(rule), headerStyle.Render("  RUN SUMMARY"), headerStyle.Render(rule))

	status := passedStyle.Render("✓ PASSED")
	if !s.OK() {
		status = failedStyle.Render("✗ FAILED")
	}
	c.printf(LevelQuiet, "  Status:   %s\n", status)
	c.printf(LevelQuiet, "  Target:   %s (%s/%s)\n", s.TargetURL, s.Driver, s.Browser)
	c.printf(LevelQuiet, "  Run ID:   %s\n", s.RunID)
	c.printf(LevelQuiet, "  Duration: %s\n", s.Duration.Round(time.Millisecond))
	c.printf(LevelQuiet, "  Results:  %d total, %s, %s, %s, %s\n",
		s.Total(),
		passedStyle.Render(fmt.Sprintf("%d passed", s.Passed)),
		failedStyle.Render(fmt.Sprintf("%d failed", s.Failed)),
		brokenStyle.Render(fmt.Sprintf("%d broken", s.Broken)),
		mutedStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)),
	)
	if len(s.Leaked) > 0 {
		c.printf(LevelQuiet, "  Leaked:   %s\n", brokenStyle.Render(strings.Join(s.Leaked, ", ")))
	}
	c.printf(LevelQuiet, "%s\n\n", headerStyle.Render(rule))
}

// List prints a scenario catalogue, one scenario per line.
func (c *Console) List(scenarios []harness.Scenario) {
	for _, s := range scenarios {
		c.printf(LevelQuiet, "%-6s %-55s %s\n", s.CaseID, s.Name, tagStyle.Render(strings.Join(s.Tags, ",")))
	}
	c.printf(LevelQuiet, "%s\n", mutedStyle.Render(fmt.Sprintf("%d scenarios", len(scenarios))))
}

var _ harness.Reporter = (*Console)(nil)
