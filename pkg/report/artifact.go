package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

// ArtifactOptions selects the formats WriteAll produces.
type ArtifactOptions struct {
	JSON     bool
	Markdown bool
	Allure   bool
}

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
	opts      ArtifactOptions
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string, opts ArtifactOptions) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
		opts:      opts,
	}
}

// WriteAll writes all configured artifact formats
func (w *ArtifactWriter) WriteAll(summary *harness.Summary) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.opts.JSON {
		if err := w.WriteResultsJSON(summary); err != nil {
			return fmt.Errorf("failed to write results JSON: %w", err)
		}
	}

	if w.opts.Markdown {
		if err := w.WriteSummaryMarkdown(summary); err != nil {
			return fmt.Errorf("failed to write summary markdown: %w", err)
		}
	}

	if w.opts.Allure {
		if err := w.WriteAllure(summary); err != nil {
			return fmt.Errorf("failed to write allure results: %w", err)
		}
	}

	return nil
}

// WriteResultsJSON writes the full run summary as JSON
func (w *ArtifactWriter) WriteResultsJSON(summary *harness.Summary) error {
	path := filepath.Join(w.outputDir, "results.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write results JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *harness.Summary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	// Header
	md.WriteString("# Password Generator E2E Summary\n\n")
	md.WriteString(fmt.Sprintf("**Target:** %s\n\n", summary.TargetURL))
	md.WriteString(fmt.Sprintf("**Browser:** %s (%s)\n\n", summary.Browser, summary.Driver))
	md.WriteString(fmt.Sprintf("**Run ID:** %s\n\n", summary.RunID))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.Start.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration.Round(time.Millisecond)))

	// Result
	md.WriteString("## Result\n\n")
	if summary.OK() {
		md.WriteString("✅ **All scenarios passed**\n\n")
	} else {
		md.WriteString("❌ **Some scenarios did not pass**\n\n")
	}
	md.WriteString("| Passed | Failed | Broken | Skipped | Total |\n")
	md.WriteString("|---|---|---|---|---|\n")
	md.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d |\n\n",
		summary.Passed, summary.Failed, summary.Broken, summary.Skipped, summary.Total()))

	// Scenarios grouped by status, problems first
	for _, group := range []struct {
		status harness.Status
		title  string
	}{
		{harness.StatusFailed, "Failed"},
		{harness.StatusBroken, "Broken"},
		{harness.StatusSkipped, "Skipped"},
		{harness.StatusPassed, "Passed"},
	} {
		var results []harness.Result
		for _, r := range summary.Results {
			if r.Status == group.status {
				results = append(results, r)
			}
		}
		if len(results) == 0 {
			continue
		}

		md.WriteString(fmt.Sprintf("## %s (%d)\n\n", group.title, len(results)))
		for _, r := range results {
			md.WriteString(fmt.Sprintf("- **%s** `%s` (%s)\n", r.CaseID, r.Name, r.Duration.Round(time.Millisecond)))
			if r.Status == harness.StatusPassed {
				continue
			}
			if r.Kind != "" {
				md.WriteString(fmt.Sprintf("  - Kind: %s\n", r.Kind))
			}
			if r.Message != "" {
				md.WriteString(fmt.Sprintf("  - %s\n", r.Message))
			}
			if r.Expected != "" || r.Actual != "" {
				md.WriteString(fmt.Sprintf("  - Expected `%s`, got `%s`\n", r.Expected, r.Actual))
			}
			if r.Screenshot != "" {
				md.WriteString(fmt.Sprintf("  - Screenshot: `%s`\n", r.Screenshot))
			}
		}
		md.WriteString("\n")
	}

	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}
