// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	chunkSize    = 500
	chunkOverlap = 50
)

// Indexer chunks uploaded notes and writes them to Weaviate in one batch
// per document.
type Indexer struct {
	client *weaviate.Client
}

func NewIndexer(client *weaviate.Client) *Indexer {
	return &Indexer{client: client}
}

// IndexNotes splits each page of a document into overlapping chunks and
// batch-inserts them under the given session. Splitting per page keeps the
// page attribution that citations need. Returns the number of chunks stored.
func (ix *Indexer) IndexNotes(ctx context.Context, sessionId, title string, pages []string) (int, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	var objects []*models.Object
	for pageNum, pageText := range pages {
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		chunks, err := splitter.SplitText(pageText)
		if err != nil {
			return 0, fmt.Errorf("split page %d: %w", pageNum, err)
		}
		for i, chunk := range chunks {
			objects = append(objects, &models.Object{
				Class: StudyChunkClass,
				ID:    chunkID(sessionId, title, pageNum, i),
				Properties: map[string]interface{}{
					"text":       chunk,
					"page":       pageNum,
					"title":      title,
					"session_id": sessionId,
				},
			})
		}
	}
	if len(objects) == 0 {
		slog.Warn("No chunks produced from document", "session_id", sessionId, "title", title)
		return 0, nil
	}

	resp, err := ix.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("batch insert chunks: %w", err)
	}

	stored := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			stored++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			slog.Error("Chunk insert failed",
				"session_id", sessionId,
				"error", item.Result.Errors.Error[0].Message)
		}
	}

	slog.Info("Indexed document",
		"session_id", sessionId,
		"title", title,
		"pages", len(pages),
		"chunks_stored", stored)
	return stored, nil
}

// DeleteSessionNotes removes every chunk belonging to one session. Returns
// the number of chunks deleted.
func (ix *Indexer) DeleteSessionNotes(ctx context.Context, sessionId string) (int, error) {
	where := filters.Where().
		WithPath([]string{"session_id"}).
		WithOperator(filters.Equal).
		WithValueText(sessionId)
	return ix.batchDelete(ctx, where)
}

// DeleteAllNotes removes every chunk in the class, across all sessions.
func (ix *Indexer) DeleteAllNotes(ctx context.Context) (int, error) {
	// Like "*" on a field-tokenized property matches every object.
	where := filters.Where().
		WithPath([]string{"session_id"}).
		WithOperator(filters.Like).
		WithValueText("*")
	return ix.batchDelete(ctx, where)
}

func (ix *Indexer) batchDelete(ctx context.Context, where *filters.WhereBuilder) (int, error) {
	resp, err := ix.client.Batch().ObjectsBatchDeleter().
		WithClassName(StudyChunkClass).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("batch delete chunks: %w", err)
	}
	if resp == nil || resp.Results == nil {
		return 0, nil
	}
	if resp.Results.Failed > 0 {
		slog.Warn("Some chunk deletes failed", "failed", resp.Results.Failed)
	}
	return int(resp.Results.Successful), nil
}

// chunkID derives a stable UUID so re-uploading the same document overwrites
// its chunks instead of duplicating them.
func chunkID(sessionId, title string, page, ordinal int) strfmt.UUID {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%d", sessionId, title, page, ordinal)))
	id, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(id.String())
}
