package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"dataplatform/quality-gate/internal/stats"
)

const (
	defaultEmbedBatch  = 32
	defaultInsertBatch = 64
)

// Stats summarizes one refreshed embedding set. NormMean is the drift-gated
// statistic; the rest ride along for alert detail and the run report.
type Stats struct {
	Count    int
	NormMean float64
	NormStd  float64
	NormMin  float64
	NormMax  float64
}

// Refresher rebuilds the vector index from the curated corpus with
// reset-then-rebuild semantics: the class is dropped and recreated so no
// stale vectors survive a schema change.
type Refresher struct {
	Embedder    Embedder
	Index       Index
	Logger      *slog.Logger
	EmbedBatch  int
	InsertBatch int
}

func (r *Refresher) Refresh(ctx context.Context, docs []Document) (Stats, error) {
	if len(docs) == 0 {
		return Stats{}, nil
	}
	embedBatch := r.EmbedBatch
	if embedBatch <= 0 {
		embedBatch = defaultEmbedBatch
	}
	insertBatch := r.InsertBatch
	if insertBatch <= 0 {
		insertBatch = defaultInsertBatch
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatch {
		end := start + embedBatch
		if end > len(docs) {
			end = len(docs)
		}
		texts := make([]string, 0, end-start)
		for _, doc := range docs[start:end] {
			texts = append(texts, doc.Text)
		}
		batch, err := r.Embedder.Embed(ctx, texts)
		if err != nil {
			return Stats{}, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		vectors = append(vectors, batch...)
	}

	if err := r.Index.Reset(ctx); err != nil {
		return Stats{}, fmt.Errorf("index reset: %w", err)
	}
	for start := 0; start < len(docs); start += insertBatch {
		end := start + insertBatch
		if end > len(docs) {
			end = len(docs)
		}
		if err := r.Index.Add(ctx, docs[start:end], vectors[start:end]); err != nil {
			return Stats{}, fmt.Errorf("index insert at %d: %w", start, err)
		}
		if r.Logger != nil {
			r.Logger.Info("indexed embeddings", slog.Int("done", end), slog.Int("total", len(docs)))
		}
	}

	return computeStats(vectors), nil
}

func computeStats(vectors [][]float32) Stats {
	norms := make([]float64, 0, len(vectors))
	for _, vec := range vectors {
		sum := 0.0
		for _, v := range vec {
			sum += float64(v) * float64(v)
		}
		norms = append(norms, math.Sqrt(sum))
	}
	return Stats{
		Count:    len(norms),
		NormMean: stats.Mean(norms),
		NormStd:  stats.StdDev(norms, true),
		NormMin:  stats.Min(norms),
		NormMax:  stats.Max(norms),
	}
}
