package weaviate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"podcastqa/apps/backend/internal/vector"
)

const DefaultBatchSize = 100

type Store struct {
	client    *weaviate.Client
	batchSize int
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client, batchSize: DefaultBatchSize}
}

// WithBatchSize bounds the number of objects per batch request.
func (s *Store) WithBatchSize(n int) *Store {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

var ErrNotReady = errors.New("weaviate is not ready")

// EnsureSchema returns ErrNotReady while Weaviate is still starting.
func (s *Store) EnsureSchema(ctx context.Context) error {
	adapter := vector.NewWeaviateClientAdapter(s.client)
	ready, err := adapter.Ready(ctx)
	if err != nil {
		return fmt.Errorf("readiness check: %w", err)
	}
	if !ready {
		return ErrNotReady
	}
	return vector.EnsureSchema(ctx, adapter)
}

// Upsert writes records under namespace in batches and returns how many were
// accepted. Objects rejected individually are logged and not counted; a
// failed batch request aborts with the count so far.
func (s *Store) Upsert(ctx context.Context, namespace string, records []vector.Record) (int, error) {
	stored := 0
	for start := 0; start < len(records); start += s.batchSize {
		end := min(start+s.batchSize, len(records))

		objs := make([]*models.Object, 0, end-start)
		for _, r := range records[start:end] {
			objs = append(objs, &models.Object{
				Class:      vector.ClassName,
				ID:         strfmt.UUID(r.ID),
				Properties: properties(namespace, r.Metadata),
				Vector:     r.Vector,
			})
		}

		resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
		if err != nil {
			return stored, fmt.Errorf("batch upsert: %w", err)
		}

		for _, obj := range resp {
			if msg := objectError(obj); msg != "" {
				slog.WarnContext(ctx, "vector object rejected", "id", obj.ID, "error", msg)
				continue
			}
			stored++
		}
	}
	return stored, nil
}

func properties(namespace string, m vector.Metadata) map[string]interface{} {
	var speakerID int64
	if m.SpeakerID != nil {
		speakerID = *m.SpeakerID
	}
	return map[string]interface{}{
		"content":   m.Content,
		"namespace": namespace,
		"podcastId": m.PodcastID,
		"episodeId": m.EpisodeID,
		"speakerId": speakerID,
		"startTime": m.StartTime,
		"endTime":   m.EndTime,
	}
}

func objectError(obj models.ObjectsGetResponse) string {
	if obj.Result == nil || obj.Result.Errors == nil {
		return ""
	}
	msgs := make([]string, 0, len(obj.Result.Errors.Error))
	for _, e := range obj.Result.Errors.Error {
		if e != nil {
			msgs = append(msgs, e.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

// Query returns the topK nearest chunks. An empty podcastIDs means no filter.
func (s *Store) Query(ctx context.Context, vec []float32, topK int, podcastIDs []int64) ([]vector.Match, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "podcastId"},
		{Name: "episodeId"},
		{Name: "speakerId"},
		{Name: "startTime"},
		{Name: "endTime"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
	}

	q := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)).
		WithLimit(topK).
		WithFields(fields...)
	if where := podcastFilter(podcastIDs); where != nil {
		q = q.WithWhere(where)
	}

	res, err := q.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	var matches []vector.Match
	data, _ := res.Data["Get"].(map[string]interface{})
	rows, _ := data[vector.ClassName].([]interface{})
	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		m := vector.Match{Metadata: metadataFrom(props)}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			m.ID, _ = additional["id"].(string)
			if d, ok := additional["distance"].(float64); ok {
				m.Score = clamp01(1 - d)
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func podcastFilter(ids []int64) *filters.WhereBuilder {
	switch len(ids) {
	case 0:
		return nil
	case 1:
		return filters.Where().WithPath([]string{"podcastId"}).WithOperator(filters.Equal).WithValueInt(ids[0])
	}
	operands := make([]*filters.WhereBuilder, 0, len(ids))
	for _, id := range ids {
		operands = append(operands, filters.Where().WithPath([]string{"podcastId"}).WithOperator(filters.Equal).WithValueInt(id))
	}
	return filters.Where().WithOperator(filters.Or).WithOperands(operands)
}

func metadataFrom(props map[string]interface{}) vector.Metadata {
	m := vector.Metadata{}
	m.Content, _ = props["content"].(string)
	m.PodcastID = int64(number(props["podcastId"]))
	m.EpisodeID = int64(number(props["episodeId"]))
	if sid := int64(number(props["speakerId"])); sid > 0 {
		m.SpeakerID = &sid
	}
	m.StartTime = number(props["startTime"])
	m.EndTime = number(props["endTime"])
	return m
}

func number(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func clamp01(f float64) float64 {
	return max(0, min(1, f))
}

// DeleteByEpisode removes one episode's chunks from namespace.
func (s *Store) DeleteByEpisode(ctx context.Context, namespace string, episodeID int64) error {
	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().WithPath([]string{"namespace"}).WithOperator(filters.Equal).WithValueText(namespace),
			filters.Where().WithPath([]string{"episodeId"}).WithOperator(filters.Equal).WithValueInt(episodeID),
		})
	return s.deleteWhere(ctx, where)
}

// DeleteNamespace removes every chunk of a podcast.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	where := filters.Where().WithPath([]string{"namespace"}).WithOperator(filters.Equal).WithValueText(namespace)
	return s.deleteWhere(ctx, where)
}

func (s *Store) deleteWhere(ctx context.Context, where *filters.WhereBuilder) error {
	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return err
	}
	if resp != nil && resp.Results != nil && resp.Results.Failed > 0 {
		return fmt.Errorf("batch delete: %d objects failed", resp.Results.Failed)
	}
	return nil
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	meta := graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}

	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(meta).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	agg, _ := res.Data["Aggregate"].(map[string]interface{})
	rows, _ := agg[vector.ClassName].([]interface{})
	if len(rows) == 0 {
		return 0, nil
	}
	row, _ := rows[0].(map[string]interface{})
	m, _ := row["meta"].(map[string]interface{})
	return int(number(m["count"])), nil
}
