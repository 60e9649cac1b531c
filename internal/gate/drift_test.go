package gate

import (
	"testing"
)

func TestCheckDriftThresholdBoundary(t *testing.T) {
	cfg := DefaultDriftConfig()
	rec := windowOf([]float64{1.0})

	under := CheckDrift("embedding_norm_mean", 1.099, rec, cfg)
	if !under.Passed {
		t.Fatalf("expected pass just under threshold, rel=%v", under.RelDeviation)
	}
	at := CheckDrift("embedding_norm_mean", 1.10, rec, cfg)
	if at.Passed {
		t.Fatalf("expected fail at threshold, rel=%v", at.RelDeviation)
	}
	if at.Severity != SeverityBlocking {
		t.Fatalf("expected blocking severity got %s", at.Severity)
	}
}

func TestCheckDriftDetailFormat(t *testing.T) {
	rec := windowOf([]float64{1.0})
	report := CheckDrift("embedding_norm_mean", 1.25, rec, DefaultDriftConfig())
	if report.Passed {
		t.Fatalf("expected drift at 25%% deviation")
	}
	want := "embedding_norm_mean drift: observed=1.25 baseline=1.00 rel_dev=0.25 threshold=0.10"
	if len(report.Detail) != 1 || report.Detail[0] != want {
		t.Fatalf("unexpected detail %v, want %q", report.Detail, want)
	}
}

func TestCheckDriftWithinToleranceDoesNotFlag(t *testing.T) {
	rec := windowOf([]float64{1.0})
	report := CheckDrift("embedding_norm_mean", 1.02, rec, DefaultDriftConfig())
	if !report.Passed {
		t.Fatalf("expected pass at 2%% deviation, rel=%v", report.RelDeviation)
	}
}

func TestCheckDriftNoBaselineSkips(t *testing.T) {
	cfg := DefaultDriftConfig()
	if report := CheckDrift("m", 5, nil, cfg); !report.Passed || !report.Skipped {
		t.Fatalf("expected skip-pass on absent baseline")
	}
	zero := windowOf([]float64{0})
	if report := CheckDrift("m", 5, zero, cfg); !report.Passed || !report.Skipped {
		t.Fatalf("expected skip-pass on zero baseline mean")
	}
}
