package dbt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const mixedResults = `{
  "results": [
    {"unique_id": "test.marts.not_null_document_index_id", "status": "pass"},
    {"unique_id": "test.marts.unique_document_index_id", "status": "fail"},
    {"unique_id": "test.marts.accepted_domains", "status": "error"},
    {"unique_id": "test.marts.optional_check", "status": "skipped"}
  ]
}`

func TestParseRunResults(t *testing.T) {
	report, err := ParseRunResults([]byte(mixedResults))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if report.Passed {
		t.Fatalf("expected failed report")
	}
	want := []string{"test.marts.unique_document_index_id", "test.marts.accepted_domains"}
	if len(report.Failed) != len(want) {
		t.Fatalf("unexpected failed list %v", report.Failed)
	}
	for i := range want {
		if report.Failed[i] != want[i] {
			t.Fatalf("expected %s at %d, got %s", want[i], i, report.Failed[i])
		}
	}
}

func TestParseRunResultsAllPass(t *testing.T) {
	report, err := ParseRunResults([]byte(`{"results":[{"unique_id":"a","status":"pass"},{"unique_id":"b","status":"success"}]}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !report.Passed || len(report.Failed) != 0 {
		t.Fatalf("expected clean report, got %+v", report)
	}
}

func TestParseRunResultsInvalid(t *testing.T) {
	if _, err := ParseRunResults([]byte("not json")); err == nil {
		t.Fatalf("expected error for invalid artifact")
	}
}

func writeArtifact(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "target"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "target", "run_results.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestRunReadsArtifact(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, mixedResults)

	r := NewRunner(dir)
	r.Command = "true"
	r.Args = nil
	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Passed || len(report.Failed) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunNonZeroExitWithArtifact(t *testing.T) {
	// dbt exits non-zero on test failures; the artifact still decides.
	dir := t.TempDir()
	writeArtifact(t, dir, mixedResults)

	r := NewRunner(dir)
	r.Command = "false"
	r.Args = nil
	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("expected artifact to win over exit code, got %v", err)
	}
	if report.Passed {
		t.Fatalf("expected failed report")
	}
}

func TestRunMissingArtifact(t *testing.T) {
	r := NewRunner(t.TempDir())
	r.Command = "true"
	r.Args = nil
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected error when run_results.json is missing")
	}
}
