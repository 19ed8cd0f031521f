package weaviate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"vidchat/internal/index"
	"vidchat/internal/text"
	"vidchat/internal/vector"
)

const batchSize = 100

// Store builds session indexes inside a shared Weaviate class. Every index
// gets its own indexId and searches are filtered on it.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, s)
}

func (s *Store) ClassExists(ctx context.Context, className string) (bool, error) {
	return s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
}

func (s *Store) CreateClass(ctx context.Context, class *models.Class) error {
	return s.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (s *Store) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return s.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
}

func (s *Store) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return s.client.Schema().PropertyCreator().WithClassName(className).WithProperty(property).Do(ctx)
}

// Build writes chunks under a fresh indexId. A failed build removes whatever
// it already wrote.
func (s *Store) Build(ctx context.Context, chunks []text.Chunk, vectors [][]float32) (index.Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	idx := &Index{store: s, id: uuid.New().String(), size: len(chunks)}

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))

		objs := make([]*models.Object, 0, end-start)
		for i := start; i < end; i++ {
			objs = append(objs, &models.Object{
				Class: vector.ClassName,
				Properties: map[string]interface{}{
					"content":    chunks[i].Content,
					"chunkIndex": chunks[i].Index,
					"indexId":    idx.id,
				},
				Vector: vectors[i],
			})
		}

		if err := s.storeBatch(ctx, objs); err != nil {
			if dropErr := idx.Drop(ctx); dropErr != nil {
				slog.WarnContext(ctx, "failed to clean up partial index", "index_id", idx.id, "error", dropErr)
			}
			return nil, err
		}
	}

	slog.DebugContext(ctx, "weaviate index stored", "index_id", idx.id, "chunks", len(chunks))
	return idx, nil
}

func (s *Store) storeBatch(ctx context.Context, objs []*models.Object) error {
	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		return err
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch object error: %s", r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

func (s *Store) search(ctx context.Context, indexID string, vec []float32, k int) ([]index.Hit, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithWhere(byIndex(indexID)).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	hits := []index.Hit{}
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return hits, nil
	}
	rows, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return hits, nil
	}

	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		var hit index.Hit
		if content, ok := props["content"].(string); ok {
			hit.Chunk.Content = content
		}
		if ci, ok := props["chunkIndex"].(float64); ok {
			hit.Chunk.Index = int(ci)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if d, ok := additional["distance"].(float64); ok {
				hit.Score = float32(1 - d)
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Store) deleteIndex(ctx context.Context, indexID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(byIndex(indexID)).
		Do(ctx)
	return err
}

func byIndex(indexID string) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{"indexId"}).
		WithOperator(filters.Equal).
		WithValueString(indexID)
}

// Index is a handle on one session's chunks inside the shared class.
type Index struct {
	store *Store
	id    string
	size  int
}

func (i *Index) ID() string {
	return i.id
}

func (i *Index) Size() int {
	return i.size
}

func (i *Index) Search(ctx context.Context, vec []float32, k int) ([]index.Hit, error) {
	if k <= 0 || i.size == 0 {
		return []index.Hit{}, nil
	}
	return i.store.search(ctx, i.id, vec, k)
}

// Drop deletes the index's objects from Weaviate.
func (i *Index) Drop(ctx context.Context) error {
	return i.store.deleteIndex(ctx, i.id)
}
