package vector

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema creates the chunk class if it is absent. The call is
// idempotent: an existing class is left alone apart from backfilling any
// missing properties.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "text",
			DataType: []string{"text"},
		},
		{
			Name:     "source",
			DataType: []string{"string"}, // original filename (exact match)
		},
		{
			Name:     "chunkIndex",
			DataType: []string{"int"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       ClassName,
			Description: "A chunk of an ingested document",
			Vectorizer:  "none",
			VectorIndexConfig: map[string]interface{}{
				"distance": "cosine",
			},
			Properties: properties,
		}
		return client.CreateClass(ctx, class)
	}

	// Class exists, check for missing properties
	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}

	return nil
}

// DimensionProber reports the vector length of some stored record, if any.
type DimensionProber interface {
	VectorDimension(ctx context.Context) (int, bool, error)
}

// VerifyDimension fails fast when the index already holds vectors of a
// different length than the configured embedder produces. An empty index
// passes: its dimension is locked in by the first insert.
func VerifyDimension(ctx context.Context, probe DimensionProber, want int) error {
	got, found, err := probe.VectorDimension(ctx)
	if err != nil {
		return err
	}
	if found && got != want {
		return fmt.Errorf("%w: index holds %d-dimensional vectors, embedder is configured for %d",
			ErrDimensionMismatch, got, want)
	}
	return nil
}
