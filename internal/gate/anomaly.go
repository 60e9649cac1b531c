package gate

import (
	"fmt"
	"math"

	"dataplatform/quality-gate/internal/baseline"
)

type AnomalyConfig struct {
	ZThreshold float64
	MinWindow  int
}

func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{ZThreshold: 3.0, MinWindow: 2}
}

// AnomalyReport carries the numeric inputs alongside the gate result so the
// detail strings are reproducible from the report alone.
type AnomalyReport struct {
	Result
	Metric       string
	Observed     float64
	BaselineMean float64
	BaselineStd  float64
	Score        float64
	Skipped      bool
}

// CheckAnomaly computes a z-score for the observed value against the rolling
// baseline. Absent or short history and zero variance are skip-passes: no
// history means no claim. Severity is warn; an anomalous value is suspicious
// but may be a legitimate planned change.
func CheckAnomaly(metric string, observed float64, rec *baseline.Record, cfg AnomalyConfig) AnomalyReport {
	report := AnomalyReport{
		Result:   Pass(StageAnomaly),
		Metric:   metric,
		Observed: observed,
	}
	if rec == nil || len(rec.Window) < cfg.MinWindow {
		report.Skipped = true
		return report
	}
	report.BaselineMean = rec.Mean
	report.BaselineStd = rec.StdDev
	if rec.StdDev == 0 {
		report.Skipped = true
		return report
	}
	report.Score = (observed - rec.Mean) / rec.StdDev
	if math.Abs(report.Score) >= cfg.ZThreshold {
		direction := "spike"
		if report.Score < 0 {
			direction = "drop"
		}
		report.Result = Fail(StageAnomaly, SeverityWarn, fmt.Sprintf(
			"%s: %s detected (Z=%.2f, current=%g, mean=%.1f)",
			metric, direction, report.Score, observed, rec.Mean))
	}
	return report
}
