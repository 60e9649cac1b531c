package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"dataplatform/quality-gate/internal/baseline"
	"dataplatform/quality-gate/internal/bus"
	"dataplatform/quality-gate/internal/config"
	"dataplatform/quality-gate/internal/dbt"
	"dataplatform/quality-gate/internal/embedding"
	"dataplatform/quality-gate/internal/gate"
	"dataplatform/quality-gate/internal/notify"
	"dataplatform/quality-gate/internal/pipeline"
	"dataplatform/quality-gate/internal/validate"
	"dataplatform/quality-gate/internal/warehouse"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	failuresFile := flag.String("failures-file", "", "write structured failure detail to this path")
	updateBaseline := flag.Bool("update-baseline", false, "commit this run's observations to the baseline store when the run completes")
	reportFile := flag.String("report-file", "", "write an HTML run report to this path")
	skipStructural := flag.Bool("skip-structural", false, "skip the structural gate (transformation tests already ran)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Warehouse.DSN == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	store, err := warehouse.NewStore(ctx, cfg.Warehouse.DSN)
	if err != nil {
		logger.Error("failed to connect to warehouse", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()
	repo := warehouse.NewRepository(store)

	index, err := embedding.NewWeaviateIndex(cfg.Index.Scheme, cfg.Index.Host, cfg.Index.Class)
	if err != nil {
		logger.Error("failed to build vector index client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var events pipeline.EventPublisher
	if cfg.Bus.URL != "" {
		publisher, err := bus.NewPublisher(cfg.Bus.URL, logger)
		if err != nil {
			// The bus is observability; a missing broker must not block the run.
			logger.Error("failed to connect to nats, events disabled", slog.String("error", err.Error()))
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	runner := dbt.NewRunner(cfg.Dbt.ProjectDir)
	if cfg.Dbt.Command != "" {
		runner.Command = cfg.Dbt.Command
	}
	if len(cfg.Dbt.Args) > 0 {
		runner.Args = cfg.Dbt.Args
	}
	if cfg.Dbt.TimeoutSeconds > 0 {
		runner.Timeout = time.Duration(cfg.Dbt.TimeoutSeconds) * time.Second
	}

	orch := &pipeline.Orchestrator{
		Logger:     logger,
		Structural: &validate.StructuralValidator{Runner: runner},
		Semantic: &validate.SemanticValidator{
			Repo: repo,
			Checklist: validate.Checklist{
				Table:          cfg.Warehouse.DocumentTable,
				RowCountMin:    cfg.Semantic.RowCountMin,
				RowCountMax:    cfg.Semantic.RowCountMax,
				Columns:        cfg.Semantic.Columns,
				KeyColumn:      cfg.Semantic.KeyColumn,
				NotNullColumns: cfg.Semantic.NotNullColumns,
				TextColumn:     cfg.Semantic.TextColumn,
				TextMinChars:   cfg.Semantic.TextMinChars,
				TextMaxChars:   cfg.Semantic.TextMaxChars,
			},
		},
		Source:    repo,
		Baselines: baseline.NewFileStore(cfg.Baseline.Dir, cfg.Baseline.Capacity),
		Refresher: &embedding.Refresher{
			Embedder: embedding.NewOpenAIEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model),
			Index:    index,
			Logger:   logger,
		},
		Index:    index,
		Notifier: notify.NewDispatcher(cfg.Notify.WebhookURL, logger),
		Events:   events,
		Opts: pipeline.Options{
			Marts:          cfg.Marts,
			DocumentTable:  cfg.Warehouse.DocumentTable,
			Anomaly:        toAnomalyConfig(cfg.Anomaly),
			Drift:          toDriftConfig(cfg.Drift),
			UpdateBaseline: *updateBaseline,
			SkipStructural: *skipStructural,
			FailuresFile:   *failuresFile,
		},
	}

	outcome := orch.Run(ctx)

	if *reportFile != "" {
		if err := pipeline.WriteReport(*reportFile, outcome); err != nil {
			logger.Error("report write failed", slog.String("error", err.Error()))
		} else {
			logger.Info("report written", slog.String("path", *reportFile))
		}
	}

	os.Exit(outcome.ExitCode)
}

func toAnomalyConfig(c config.AnomalyConfig) gate.AnomalyConfig {
	out := gate.DefaultAnomalyConfig()
	if c.ZThreshold > 0 {
		out.ZThreshold = c.ZThreshold
	}
	if c.MinWindow > 0 {
		out.MinWindow = c.MinWindow
	}
	return out
}

func toDriftConfig(c config.DriftConfig) gate.DriftConfig {
	out := gate.DefaultDriftConfig()
	if c.RelThreshold > 0 {
		out.RelThreshold = c.RelThreshold
	}
	return out
}
