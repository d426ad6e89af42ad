// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
)

var retrievalTracer = otel.Tracer("mentora.tutor.retrieval")

// WeaviateRetriever answers semantic queries against the StudyChunk class,
// scoped to a single session's uploaded notes.
type WeaviateRetriever struct {
	client    *weaviate.Client
	sessionId string
}

// NewWeaviateRetriever scopes a retriever to one session's chunks.
func NewWeaviateRetriever(client *weaviate.Client, sessionId string) *WeaviateRetriever {
	return &WeaviateRetriever{client: client, sessionId: sessionId}
}

// Retrieve runs a NearText search over the session's chunks and returns up
// to topK passages, best match first.
func (r *WeaviateRetriever) Retrieve(ctx context.Context, query string, topK int) ([]datatypes.ContextPassage, error) {
	ctx, span := retrievalTracer.Start(ctx, "retrieval.Retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", r.sessionId),
		attribute.Int("retrieval.top_k", topK),
	)

	if topK <= 0 {
		topK = 3
	}

	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	where := filters.Where().
		WithPath([]string{"session_id"}).
		WithOperator(filters.Equal).
		WithValueText(r.sessionId)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "page"},
		{Name: "title"},
		{Name: "_additional { certainty }"},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(StudyChunkClass).
		WithFields(fields...).
		WithWhere(where).
		WithNearText(nearText).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("semantic search: %s", result.Errors[0].Message)
	}

	passages, err := parsePassages(result)
	if err != nil {
		return nil, err
	}

	slog.Debug("Retrieved passages",
		"session_id", r.sessionId,
		"count", len(passages))
	return passages, nil
}

// studyChunkRecord mirrors the GraphQL object shape for typed decoding.
type studyChunkRecord struct {
	Text  string  `json:"text"`
	Page  float64 `json:"page"`
	Title string  `json:"title"`
}

// parsePassages decodes a Get response for the StudyChunk class. Weaviate
// hands back untyped maps, so each object is remarshaled through JSON into
// a typed record. Malformed objects are skipped, not fatal.
func parsePassages(result *models.GraphQLResponse) ([]datatypes.ContextPassage, error) {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	objects, ok := data[StudyChunkClass].([]interface{})
	if !ok {
		return nil, nil
	}

	passages := make([]datatypes.ContextPassage, 0, len(objects))
	for _, obj := range objects {
		raw, err := json.Marshal(obj)
		if err != nil {
			slog.Warn("Skipping unmarshalable chunk", "error", err)
			continue
		}
		var rec studyChunkRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Warn("Skipping malformed chunk", "error", err)
			continue
		}
		if rec.Text == "" {
			continue
		}
		passages = append(passages, datatypes.ContextPassage{
			Text:  rec.Text,
			Page:  int(rec.Page),
			Title: rec.Title,
		})
	}
	return passages, nil
}
