package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dataplatform/quality-gate/internal/embedding"
	"dataplatform/quality-gate/internal/gate"
)

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.html")
	out := Outcome{
		RunID:  "run-123",
		Status: StatusHalted,
		Results: []gate.Result{
			gate.Pass(gate.StageStructural),
			gate.Fail(gate.StageDrift, gate.SeverityBlocking, "norm <shifted> past threshold"),
		},
		HaltedAt:       gate.StageDrift,
		ExitCode:       ExitDrift,
		MartCounts:     map[string]int64{"marts.document_index": 21},
		VectorCount:    21,
		EmbeddingStats: embedding.Stats{Count: 21, NormMean: 1.25, NormStd: 0.01, NormMin: 1.2, NormMax: 1.3},
	}
	if err := WriteReport(path, out); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	html := string(data)

	for _, want := range []string{
		"run-123",
		"HALTED",
		"halted at DRIFT",
		"marts.document_index",
		"<td>21</td>",
		"Norm mean 1.2500",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("report missing %q", want)
		}
	}
	if strings.Contains(html, "<shifted>") {
		t.Fatalf("detail text must be escaped")
	}
	if !strings.Contains(html, "&lt;shifted&gt;") {
		t.Fatalf("expected escaped detail in report")
	}
}
