package embedding

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// Document is one curated corpus row headed for the vector index.
type Document struct {
	ID     string
	Domain string
	Text   string
}

// Index is the persistent vector store. Reset drops everything so a rebuild
// never leaves stale vectors behind.
type Index interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, docs []Document, vectors [][]float32) error
	Count(ctx context.Context) (int64, error)
}

type WeaviateIndex struct {
	client *weaviate.Client
	class  string
}

func NewWeaviateIndex(scheme, host, class string) (*WeaviateIndex, error) {
	client, err := weaviate.NewClient(weaviate.Config{Scheme: scheme, Host: host})
	if err != nil {
		return nil, fmt.Errorf("weaviate client: %w", err)
	}
	return &WeaviateIndex{client: client, class: class}, nil
}

func (w *WeaviateIndex) Reset(ctx context.Context) error {
	exists, err := w.client.Schema().ClassExistenceChecker().WithClassName(w.class).Do(ctx)
	if err != nil {
		return fmt.Errorf("class existence check: %w", err)
	}
	if exists {
		if err := w.client.Schema().ClassDeleter().WithClassName(w.class).Do(ctx); err != nil {
			return fmt.Errorf("class delete: %w", err)
		}
	}
	class := &models.Class{
		Class:      w.class,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "doc_id", DataType: []string{"text"}},
			{Name: "domain", DataType: []string{"text"}},
			{Name: "text", DataType: []string{"text"}},
		},
	}
	if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("class create: %w", err)
	}
	return nil
}

func (w *WeaviateIndex) Add(ctx context.Context, docs []Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("%d documents for %d vectors", len(docs), len(vectors))
	}
	objects := make([]*models.Object, len(docs))
	for i, doc := range docs {
		// Deterministic object ID so a rebuild of the same corpus is stable.
		objID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(w.class+"/"+doc.ID))
		objects[i] = &models.Object{
			Class:  w.class,
			ID:     strfmt.UUID(objID.String()),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"doc_id": doc.ID,
				"domain": doc.Domain,
				"text":   doc.Text,
			},
		}
	}
	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}
	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch item %s: %s", item.ID, item.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

func (w *WeaviateIndex) Count(ctx context.Context) (int64, error) {
	result, err := w.client.GraphQL().Aggregate().
		WithClassName(w.class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("aggregate query: %w", err)
	}
	if len(result.Errors) > 0 {
		return 0, fmt.Errorf("aggregate query: %s", result.Errors[0].Message)
	}
	aggregate, ok := result.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate response shape")
	}
	groups, ok := aggregate[w.class].([]interface{})
	if !ok || len(groups) == 0 {
		return 0, nil
	}
	group, ok := groups[0].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate group shape")
	}
	meta, ok := group["meta"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate meta shape")
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate count type")
	}
	return int64(count), nil
}
