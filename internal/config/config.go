package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Marts     []string        `yaml:"marts"`
	Semantic  SemanticConfig  `yaml:"semantic"`
	Anomaly   AnomalyConfig   `yaml:"anomaly"`
	Drift     DriftConfig     `yaml:"drift"`
	Baseline  BaselineConfig  `yaml:"baseline"`
	Dbt       DbtConfig       `yaml:"dbt"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Notify    NotifyConfig    `yaml:"notify"`
	Bus       BusConfig       `yaml:"bus"`
}

type WarehouseConfig struct {
	DSN           string `yaml:"dsn"`
	DocumentTable string `yaml:"document_table"`
}

type SemanticConfig struct {
	RowCountMin    int64    `yaml:"row_count_min"`
	RowCountMax    int64    `yaml:"row_count_max"`
	Columns        []string `yaml:"columns"`
	KeyColumn      string   `yaml:"key_column"`
	NotNullColumns []string `yaml:"not_null_columns"`
	TextColumn     string   `yaml:"text_column"`
	TextMinChars   int      `yaml:"text_min_chars"`
	TextMaxChars   int      `yaml:"text_max_chars"`
}

type AnomalyConfig struct {
	ZThreshold float64 `yaml:"z_threshold"`
	MinWindow  int     `yaml:"min_window"`
}

type DriftConfig struct {
	RelThreshold float64 `yaml:"rel_threshold"`
}

type BaselineConfig struct {
	Dir      string `yaml:"dir"`
	Capacity int    `yaml:"capacity"`
}

type DbtConfig struct {
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
	ProjectDir     string   `yaml:"project_dir"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
}

type IndexConfig struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Class  string `yaml:"class"`
}

type NotifyConfig struct {
	WebhookURL string `yaml:"-"`
}

type BusConfig struct {
	URL string `yaml:"url"`
}

// Load reads the optional YAML file, then applies env overrides. Secrets
// (DSN, webhook, API key) come from the environment only or override the file.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Warehouse: WarehouseConfig{
			DocumentTable: "marts.document_index",
		},
		Marts: []string{"marts.document_index", "marts.hr_policy_features", "marts.arbitration_timelines"},
		Semantic: SemanticConfig{
			RowCountMin:    1,
			RowCountMax:    1000000,
			Columns:        []string{"id", "domain", "text"},
			KeyColumn:      "id",
			NotNullColumns: []string{"id", "domain", "text"},
			TextColumn:     "text",
			TextMinChars:   50,
			TextMaxChars:   5000,
		},
		Anomaly:  AnomalyConfig{ZThreshold: 3.0, MinWindow: 2},
		Drift:    DriftConfig{RelThreshold: 0.10},
		Baseline: BaselineConfig{Dir: "metrics/baselines", Capacity: 7},
		Dbt: DbtConfig{
			Command:        "dbt",
			Args:           []string{"test"},
			ProjectDir:     ".",
			TimeoutSeconds: 600,
		},
		Embedding: EmbeddingConfig{Model: "all-MiniLM-L6-v2"},
		Index:     IndexConfig{Scheme: "http", Host: "localhost:8080", Class: "Document"},
	}
}

func applyEnv(cfg *Config) {
	cfg.Warehouse.DSN = getenv("DATABASE_URL", cfg.Warehouse.DSN)
	cfg.Baseline.Dir = getenv("BASELINE_DIR", cfg.Baseline.Dir)
	cfg.Embedding.BaseURL = getenv("OPENAI_BASE_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.APIKey = getenv("OPENAI_API_KEY", "")
	cfg.Index.Scheme = getenv("WEAVIATE_SCHEME", cfg.Index.Scheme)
	cfg.Index.Host = getenv("WEAVIATE_HOST", cfg.Index.Host)
	cfg.Notify.WebhookURL = getenv("SLACK_WEBHOOK_URL", "")
	cfg.Bus.URL = getenv("NATS_URL", cfg.Bus.URL)
	cfg.Baseline.Capacity = getenvInt("BASELINE_CAPACITY", cfg.Baseline.Capacity)
}

func getenv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(val); err == nil {
		return parsed
	}
	return fallback
}
