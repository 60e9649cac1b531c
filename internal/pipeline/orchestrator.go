// Package pipeline sequences the quality gates and applies severity policy:
// blocking failures halt the run with a stage-distinct exit code, warn
// failures are alerted and absorbed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"dataplatform/quality-gate/internal/baseline"
	"dataplatform/quality-gate/internal/bus"
	"dataplatform/quality-gate/internal/embedding"
	"dataplatform/quality-gate/internal/gate"
	"dataplatform/quality-gate/internal/notify"
	"dataplatform/quality-gate/internal/warehouse"
)

type Status string

const (
	StatusDone   Status = "DONE"
	StatusHalted Status = "HALTED"
)

// Exit codes let the calling scheduler distinguish the failure class
// without reading logs.
const (
	ExitOK         = 0
	ExitStructural = 2
	ExitSemantic   = 3
	ExitRefresh    = 4
	ExitDrift      = 5
)

const driftMetric = "embedding_norm_mean"

type Outcome struct {
	RunID          string
	Results        []gate.Result
	Status         Status
	HaltedAt       string
	ExitCode       int
	MartCounts     map[string]int64
	VectorCount    int64
	EmbeddingStats embedding.Stats
}

type Validator interface {
	Run(ctx context.Context) gate.Result
}

type DocumentSource interface {
	RowCount(ctx context.Context, table string) (int64, error)
	FetchDocuments(ctx context.Context, table string, limit int) ([]warehouse.DocumentRow, error)
}

type Refresher interface {
	Refresh(ctx context.Context, docs []embedding.Document) (embedding.Stats, error)
}

type VectorCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Alerter interface {
	Send(ctx context.Context, message, level string, details []string)
}

type EventPublisher interface {
	PublishGateFailure(evt bus.GateEvent)
	PublishRunOutcome(evt bus.RunEvent)
}

type Options struct {
	Marts          []string
	DocumentTable  string
	Anomaly        gate.AnomalyConfig
	Drift          gate.DriftConfig
	UpdateBaseline bool
	SkipStructural bool
	FailuresFile   string
}

type Orchestrator struct {
	Logger     *slog.Logger
	Structural Validator
	Semantic   Validator
	Source     DocumentSource
	Baselines  baseline.Store
	Refresher  Refresher
	Index      VectorCounter
	Notifier   Alerter
	Events     EventPublisher
	Opts       Options
}

// Run walks STRUCTURAL -> SEMANTIC -> ANOMALY -> EMBEDDING_REFRESH -> DRIFT
// -> VERIFY. Baseline observations staged along the way are committed only
// when the run reaches DONE and the operator opted in.
func (o *Orchestrator) Run(ctx context.Context) Outcome {
	out := Outcome{
		RunID:      uuid.NewString(),
		Status:     StatusDone,
		ExitCode:   ExitOK,
		MartCounts: map[string]int64{},
	}
	o.Logger.Info("pipeline run starting", slog.String("run_id", out.RunID))

	if !o.Opts.SkipStructural {
		if o.handle(ctx, &out, o.Structural.Run(ctx), ExitStructural) {
			return o.finish(&out)
		}
	}

	if o.handle(ctx, &out, o.Semantic.Run(ctx), ExitSemantic) {
		return o.finish(&out)
	}

	if o.handle(ctx, &out, o.runAnomalyStage(ctx, &out), 0) {
		return o.finish(&out)
	}

	stats, res := o.runRefreshStage(ctx)
	out.EmbeddingStats = stats
	if o.handle(ctx, &out, res, ExitRefresh) {
		return o.finish(&out)
	}

	if o.handle(ctx, &out, o.runDriftStage(stats), ExitDrift) {
		return o.finish(&out)
	}

	o.handle(ctx, &out, o.runVerifyStage(ctx, &out), 0)

	return o.finish(&out)
}

// handle appends the result, applies severity policy, and reports failures.
// Returns true when the run must halt.
func (o *Orchestrator) handle(ctx context.Context, out *Outcome, res gate.Result, haltCode int) bool {
	out.Results = append(out.Results, res)
	if res.Passed {
		o.Logger.Info("gate passed", slog.String("stage", res.Stage))
		return false
	}
	o.Logger.Warn("gate failed",
		slog.String("stage", res.Stage),
		slog.String("severity", string(res.Severity)))

	details := res.Detail
	if o.Opts.FailuresFile != "" {
		if err := notify.WriteFailures(o.Opts.FailuresFile, details); err != nil {
			o.Logger.Error("failures file write failed", slog.String("error", err.Error()))
		} else {
			details = notify.LoadFailures(o.Opts.FailuresFile)
		}
	}

	level := "warning"
	message := fmt.Sprintf("Pipeline warning at %s", strings.ToLower(res.Stage))
	if res.Severity == gate.SeverityBlocking {
		level = "error"
		message = fmt.Sprintf("Pipeline halted at %s", strings.ToLower(res.Stage))
	}
	if o.Notifier != nil {
		o.Notifier.Send(ctx, message, level, details)
	}
	if o.Events != nil {
		o.Events.PublishGateFailure(bus.GateEvent{
			RunID:    out.RunID,
			Stage:    res.Stage,
			Severity: string(res.Severity),
			Detail:   res.Detail,
		})
	}

	if res.Severity == gate.SeverityBlocking {
		out.Status = StatusHalted
		out.HaltedAt = res.Stage
		out.ExitCode = haltCode
		return true
	}
	return false
}

func (o *Orchestrator) runAnomalyStage(ctx context.Context, out *Outcome) gate.Result {
	details := []string{}
	for _, table := range o.Opts.Marts {
		metric := "row_count." + shortName(table)
		count, err := o.Source.RowCount(ctx, table)
		if err != nil {
			details = append(details, fmt.Sprintf("%s: row count query failed: %v", metric, err))
			continue
		}
		out.MartCounts[table] = count
		rec := o.snapshot(metric)
		report := gate.CheckAnomaly(metric, float64(count), rec, o.Opts.Anomaly)
		o.Baselines.Record(metric, float64(count))
		if report.Skipped {
			o.Logger.Info("anomaly check skipped, insufficient history", slog.String("metric", metric))
			continue
		}
		o.Logger.Info("anomaly check",
			slog.String("metric", metric),
			slog.Float64("observed", report.Observed),
			slog.Float64("mean", report.BaselineMean),
			slog.Float64("z", report.Score))
		if !report.Passed {
			details = append(details, report.Detail...)
		}
	}
	if len(details) > 0 {
		return gate.Fail(gate.StageAnomaly, gate.SeverityWarn, details...)
	}
	return gate.Pass(gate.StageAnomaly)
}

func (o *Orchestrator) runRefreshStage(ctx context.Context) (embedding.Stats, gate.Result) {
	rows, err := o.Source.FetchDocuments(ctx, o.Opts.DocumentTable, 0)
	if err != nil {
		return embedding.Stats{}, gate.Fail(gate.StageRefresh, gate.SeverityBlocking,
			fmt.Sprintf("document fetch failed: %v", err))
	}
	docs := make([]embedding.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, embedding.Document{ID: row.ID, Domain: row.Domain, Text: row.Text})
	}
	stats, err := o.Refresher.Refresh(ctx, docs)
	if err != nil {
		return embedding.Stats{}, gate.Fail(gate.StageRefresh, gate.SeverityBlocking,
			fmt.Sprintf("embedding refresh failed: %v", err))
	}
	return stats, gate.Pass(gate.StageRefresh, fmt.Sprintf(
		"refreshed %d vectors (norm mean=%.4f std=%.4f min=%.4f max=%.4f)",
		stats.Count, stats.NormMean, stats.NormStd, stats.NormMin, stats.NormMax))
}

func (o *Orchestrator) runDriftStage(stats embedding.Stats) gate.Result {
	rec := o.snapshot(driftMetric)
	report := gate.CheckDrift(driftMetric, stats.NormMean, rec, o.Opts.Drift)
	o.Baselines.Record(driftMetric, stats.NormMean)
	if report.Skipped {
		o.Logger.Info("drift check skipped, no baseline", slog.String("metric", driftMetric))
	} else {
		o.Logger.Info("drift check",
			slog.String("metric", driftMetric),
			slog.Float64("observed", report.Observed),
			slog.Float64("baseline", report.BaselineMean),
			slog.Float64("rel_dev", report.RelDeviation))
	}
	return report.Result
}

// runVerifyStage re-reads the index count against the curated row count. The
// refresh already completed, so a mismatch is a warning for postmortem
// diagnosis, not a halt.
func (o *Orchestrator) runVerifyStage(ctx context.Context, out *Outcome) gate.Result {
	vectorCount, err := o.Index.Count(ctx)
	if err != nil {
		return gate.Fail(gate.StageVerify, gate.SeverityWarn,
			fmt.Sprintf("vector index count query failed: %v", err))
	}
	out.VectorCount = vectorCount
	rowCount, err := o.Source.RowCount(ctx, o.Opts.DocumentTable)
	if err != nil {
		return gate.Fail(gate.StageVerify, gate.SeverityWarn,
			fmt.Sprintf("curated row count query failed: %v", err))
	}
	if vectorCount != rowCount {
		return gate.Fail(gate.StageVerify, gate.SeverityWarn, fmt.Sprintf(
			"vector index count %d does not match curated row count %d", vectorCount, rowCount))
	}
	return gate.Pass(gate.StageVerify, fmt.Sprintf("%d documents, %d vectors", rowCount, vectorCount))
}

func (o *Orchestrator) finish(out *Outcome) Outcome {
	if out.Status == StatusDone && o.Opts.UpdateBaseline {
		if err := o.Baselines.UpdateAll(); err != nil {
			o.Logger.Error("baseline commit failed", slog.String("error", err.Error()))
		} else {
			o.Logger.Info("baseline observations committed")
		}
	}
	if o.Events != nil {
		o.Events.PublishRunOutcome(bus.RunEvent{
			RunID:    out.RunID,
			Status:   string(out.Status),
			HaltedAt: out.HaltedAt,
			ExitCode: out.ExitCode,
		})
	}
	o.Logger.Info("pipeline run finished",
		slog.String("run_id", out.RunID),
		slog.String("status", string(out.Status)),
		slog.Int("exit_code", out.ExitCode))
	return *out
}

func (o *Orchestrator) snapshot(metric string) *baseline.Record {
	rec, ok, err := o.Baselines.Snapshot(metric)
	if err != nil {
		o.Logger.Error("baseline read failed", slog.String("metric", metric), slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	return &rec
}

func shortName(table string) string {
	if idx := strings.LastIndex(table, "."); idx >= 0 {
		return table[idx+1:]
	}
	return table
}
