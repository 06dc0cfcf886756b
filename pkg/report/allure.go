package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/entrhq/pwgen-e2e/pkg/harness"
)

// AllureDir is the results directory name inside the artifacts dir.
const AllureDir = "allure-results"

// Framework is reported as the Allure framework label.
const Framework = "pwgen-e2e"

// allureNamespace seeds the stable history and test case ids.
var allureNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/entrhq/pwgen-e2e"))

// AllureResult is one scenario in the Allure result format.
type AllureResult struct {
	UUID          string             `json:"uuid"`
	HistoryID     string             `json:"historyId"`
	TestCaseID    string             `json:"testCaseId"`
	Name          string             `json:"name"`
	FullName      string             `json:"fullName"`
	Description   string             `json:"description,omitempty"`
	Status        string             `json:"status"`
	StatusDetails *AllureDetails     `json:"statusDetails,omitempty"`
	Stage         string             `json:"stage"`
	Start         int64              `json:"start"`
	Stop          int64              `json:"stop"`
	Labels        []AllureLabel      `json:"labels"`
	Links         []AllureLink       `json:"links,omitempty"`
	Attachments   []AllureAttachment `json:"attachments,omitempty"`
}

type AllureDetails struct {
	Message string `json:"message,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type AllureLink struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// NewAllureResult converts a scenario result. The suite label is the first
// tag other than the shared smoke, regression and generator tags.
func NewAllureResult(r harness.Result) AllureResult {
	id := uuid.New().String()
	stable := uuid.NewSHA1(allureNamespace, []byte(r.Name)).String()

	out := AllureResult{
		UUID:        id,
		HistoryID:   stable,
		TestCaseID:  stable,
		Name:        r.Title,
		FullName:    r.Name,
		Description: r.Description,
		Status:      allureStatus(r.Status),
		Stage:       "finished",
		Start:       r.Start.UnixMilli(),
		Stop:        r.Start.Add(r.Duration).UnixMilli(),
	}

	if r.Status != harness.StatusPassed {
		details := &AllureDetails{Message: r.Message}
		var trace []string
		if r.Kind != "" {
			trace = append(trace, "kind: "+string(r.Kind))
		}
		if r.Expected != "" || r.Actual != "" {
			trace = append(trace, "expected: "+r.Expected, "actual: "+r.Actual)
		}
		trace = append(trace, detailLines(r.Details)...)
		details.Trace = strings.Join(trace, "\n")
		out.StatusDetails = details
	}

	out.Labels = append(out.Labels,
		AllureLabel{Name: "suite", Value: suiteOf(r.Tags)},
		AllureLabel{Name: "framework", Value: Framework},
		AllureLabel{Name: "language", Value: "go"},
	)
	for _, tag := range r.Tags {
		out.Labels = append(out.Labels, AllureLabel{Name: "tag", Value: tag})
	}
	if r.CaseID != "" {
		out.Links = append(out.Links, AllureLink{Type: "tms", Name: r.CaseID, URL: r.CaseID})
	}
	return out
}

// noteMissingAttachment records in the status trace an attachment that
// could not be written.
func (a *AllureResult) noteMissingAttachment(name string, err error) {
	if a.StatusDetails == nil {
		a.StatusDetails = &AllureDetails{}
	}
	line := fmt.Sprintf("%s attachment unavailable: %v", name, err)
	if a.StatusDetails.Trace == "" {
		a.StatusDetails.Trace = line
		return
	}
	a.StatusDetails.Trace += "\n" + line
}

func allureStatus(s harness.Status) string {
	switch s {
	case harness.StatusPassed, harness.StatusFailed, harness.StatusBroken, harness.StatusSkipped:
		return string(s)
	}
	return string(harness.StatusBroken)
}

func suiteOf(tags []string) string {
	for _, tag := range tags {
		switch tag {
		case "smoke", "regression", "password_generator":
			continue
		}
		return tag
	}
	return "password_generator"
}

func detailLines(details map[string]interface{}) []string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, details[k]))
	}
	return lines
}

// WriteAllure writes one result file per scenario into allure-results and
// copies failure screenshots next to them as attachments.
func (w *ArtifactWriter) WriteAllure(summary *harness.Summary) error {
	dir := filepath.Join(w.outputDir, AllureDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create allure directory: %w", err)
	}

	for _, r := range summary.Results {
		result := NewAllureResult(r)

		if r.Screenshot != "" {
			source := result.UUID + "-attachment.png"
			if err := copyFile(r.Screenshot, filepath.Join(dir, source)); err != nil {
				result.noteMissingAttachment("screenshot", err)
			} else {
				result.Attachments = append(result.Attachments, AllureAttachment{
					Name:   "screenshot",
					Source: source,
					Type:   "image/png",
				})
			}
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal allure result for %s: %w", r.Name, err)
		}
		path := filepath.Join(dir, result.UUID+"-result.json")
		if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
			return fmt.Errorf("failed to write allure result for %s: %w", r.Name, writeErr)
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
