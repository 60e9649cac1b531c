// Package dbt runs the transformation layer's test suite and translates its
// run_results artifact into a structural test report.
package dbt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"dataplatform/quality-gate/internal/validate"
)

const defaultTimeout = 10 * time.Minute

type Runner struct {
	Command    string
	Args       []string
	ProjectDir string
	Timeout    time.Duration
}

func NewRunner(projectDir string) *Runner {
	return &Runner{
		Command:    "dbt",
		Args:       []string{"test"},
		ProjectDir: projectDir,
		Timeout:    defaultTimeout,
	}
}

// Run executes the test command and parses target/run_results.json. dbt exits
// non-zero when tests fail, so the exit code alone does not distinguish
// "tests failed" from "could not run"; the artifact does.
func (r *Runner) Run(ctx context.Context) (validate.TestReport, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Dir = r.ProjectDir
	runErr := cmd.Run()

	data, err := os.ReadFile(filepath.Join(r.ProjectDir, "target", "run_results.json"))
	if err != nil {
		if runErr != nil {
			return validate.TestReport{}, fmt.Errorf("command failed (%v) and no run_results artifact: %w", runErr, err)
		}
		return validate.TestReport{}, fmt.Errorf("missing run_results artifact: %w", err)
	}
	return ParseRunResults(data)
}

type runResults struct {
	Results []struct {
		UniqueID string `json:"unique_id"`
		Status   string `json:"status"`
	} `json:"results"`
}

func ParseRunResults(data []byte) (validate.TestReport, error) {
	var parsed runResults
	if err := json.Unmarshal(data, &parsed); err != nil {
		return validate.TestReport{}, fmt.Errorf("invalid run_results artifact: %w", err)
	}
	report := validate.TestReport{Passed: true}
	for _, result := range parsed.Results {
		switch result.Status {
		case "pass", "success", "skipped":
		default:
			report.Passed = false
			report.Failed = append(report.Failed, result.UniqueID)
		}
	}
	return report, nil
}
