package weaviate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"onboard/internal/retrieval"
	"onboard/internal/vector"
)

// Store is the Weaviate-backed vector index. The dimension is locked in at
// construction; inserts of any other vector length fail before reaching the
// backing store.
type Store struct {
	client    *weaviate.Client
	dimension int
}

func NewStore(client *weaviate.Client, dimension int) *Store {
	return &Store{client: client, dimension: dimension}
}

// StoreChunk inserts one chunk record under a freshly generated id.
// Duplicate content is never an error; each call creates a new object.
func (s *Store) StoreChunk(ctx context.Context, rec vector.Record) error {
	if len(rec.Vector) != s.dimension {
		return fmt.Errorf("%w: got %d, index expects %d", vector.ErrDimensionMismatch, len(rec.Vector), s.dimension)
	}

	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithID(uuid.New().String()).
		WithProperties(map[string]interface{}{
			"text":       rec.Text,
			"source":     rec.Source,
			"chunkIndex": rec.Position,
		}).
		WithVector(rec.Vector).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", vector.ErrIndexUnavailable, err)
	}
	return nil
}

// Search returns up to limit chunks ranked by cosine similarity to the query
// vector, most similar first. An empty index yields an empty slice.
func (s *Store) Search(ctx context.Context, queryVector []float32, limit int) ([]retrieval.SearchResult, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "source"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrIndexUnavailable, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: graphql error: %v", vector.ErrIndexUnavailable, res.Errors[0].Message)
	}

	results := []retrieval.SearchResult{}
	for _, props := range classObjects(res.Data) {
		result := retrieval.SearchResult{}
		if text, ok := props["text"].(string); ok {
			result.Text = text
		}
		if source, ok := props["source"].(string); ok {
			result.Source = source
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			result.Position = int(idx)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				result.Certainty = float32(certainty)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// VectorDimension probes the stored vector length. The bool is false when
// the index holds no records yet.
func (s *Store) VectorDimension(ctx context.Context) (int, bool, error) {
	fields := []graphql.Field{
		{Name: "_additional", Fields: []graphql.Field{{Name: "vector"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithLimit(1).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", vector.ErrIndexUnavailable, err)
	}
	if len(res.Errors) > 0 {
		return 0, false, fmt.Errorf("%w: graphql error: %v", vector.ErrIndexUnavailable, res.Errors[0].Message)
	}

	for _, props := range classObjects(res.Data) {
		additional, ok := props["_additional"].(map[string]interface{})
		if !ok {
			continue
		}
		if vec, ok := additional["vector"].([]interface{}); ok {
			return len(vec), true, nil
		}
	}
	return 0, false, nil
}

// CountChunks reports the number of stored chunk records.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", vector.ErrIndexUnavailable, err)
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("%w: graphql error: %v", vector.ErrIndexUnavailable, res.Errors[0].Message)
	}

	if agg, ok := res.Data["Aggregate"].(map[string]interface{}); ok {
		if objs, ok := agg[vector.ClassName].([]interface{}); ok && len(objs) > 0 {
			if props, ok := objs[0].(map[string]interface{}); ok {
				if meta, ok := props["meta"].(map[string]interface{}); ok {
					if count, ok := meta["count"].(float64); ok {
						return int(count), nil
					}
				}
			}
		}
	}
	return 0, nil
}

// classObjects unwraps the Get response down to the per-object property maps.
func classObjects(data map[string]models.JSONObject) []map[string]interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objs, ok := get[vector.ClassName].([]interface{})
	if !ok {
		return nil
	}

	var out []map[string]interface{}
	for _, o := range objs {
		if props, ok := o.(map[string]interface{}); ok {
			out = append(out, props)
		}
	}
	return out
}
