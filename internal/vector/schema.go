package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

func chunkProperties() []*models.Property {
	return []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		// Exact-match filter target.
		{Name: "namespace", DataType: []string{"text"}, Tokenization: "field"},
		{Name: "podcastId", DataType: []string{"int"}},
		{Name: "episodeId", DataType: []string{"int"}},
		// Zero when the chunk spans several speakers.
		{Name: "speakerId", DataType: []string{"int"}},
		{Name: "startTime", DataType: []string{"number"}},
		{Name: "endTime", DataType: []string{"number"}},
	}
}

// EnsureSchema creates the chunk class, or adds any properties an older
// deployment is missing.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	properties := chunkProperties()

	if !exists {
		class := &models.Class{
			Class:       ClassName,
			Description: "A chunk of a podcast transcript",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

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
