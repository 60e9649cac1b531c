package gate

import (
	"fmt"
	"math"

	"dataplatform/quality-gate/internal/baseline"
)

type DriftConfig struct {
	RelThreshold float64
}

func DefaultDriftConfig() DriftConfig {
	return DriftConfig{RelThreshold: 0.10}
}

// DriftReport carries the numeric inputs alongside the gate result.
type DriftReport struct {
	Result
	Metric       string
	Observed     float64
	BaselineMean float64
	RelDeviation float64
	Skipped      bool
}

// CheckDrift compares the observed distributional statistic against the
// stored baseline mean. Severity is blocking: drift risks silently degrading
// retrieval quality for every downstream consumer, so the run halts before
// consumers see the refreshed index.
func CheckDrift(metric string, observed float64, rec *baseline.Record, cfg DriftConfig) DriftReport {
	report := DriftReport{
		Result:   Pass(StageDrift),
		Metric:   metric,
		Observed: observed,
	}
	if rec == nil || len(rec.Window) == 0 || rec.Mean == 0 {
		report.Skipped = true
		return report
	}
	report.BaselineMean = rec.Mean
	report.RelDeviation = math.Abs(observed-rec.Mean) / rec.Mean
	if report.RelDeviation >= cfg.RelThreshold {
		report.Result = Fail(StageDrift, SeverityBlocking, fmt.Sprintf(
			"%s drift: observed=%.2f baseline=%.2f rel_dev=%.2f threshold=%.2f",
			metric, observed, rec.Mean, report.RelDeviation, cfg.RelThreshold))
	}
	return report
}
