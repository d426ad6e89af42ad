// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retrieval stores study-note chunks in Weaviate and serves the
// semantic lookups the tutoring engine grounds its guidance on.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// StudyChunkClass is the Weaviate class holding chunked study notes.
const StudyChunkClass = "StudyChunk"

// defaultVectorizer matches the module shipped in the docker-compose stack.
const defaultVectorizer = "text2vec-transformers"

func studyChunkSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	vectorizer := os.Getenv("WEAVIATE_VECTORIZER")
	if vectorizer == "" {
		vectorizer = defaultVectorizer
	}

	return &models.Class{
		Class:       StudyChunkClass,
		Description: "A chunk of uploaded study notes, vectorized for semantic retrieval.",
		Vectorizer:  vectorizer,
		Properties: []*models.Property{
			{
				Name:        "text",
				DataType:    []string{"text"},
				Description: "The chunk content.",
			},
			{
				Name:            "page",
				DataType:        []string{"int"},
				Description:     "Zero-indexed page of the source document this chunk came from.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "title",
				DataType:        []string{"text"},
				Description:     "Display title of the source document.",
				Tokenization:    "field",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "session_id",
				DataType:        []string{"text"},
				Description:     "Owning study session. Scopes every query and delete.",
				Tokenization:    "field",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureSchema creates the StudyChunk class if it does not exist yet.
func EnsureSchema(ctx context.Context, client *weaviate.Client) error {
	class := studyChunkSchema()

	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
	if err == nil {
		slog.Info("Schema already exists", "class", class.Class)
		return nil
	}

	slog.Info("Schema not found, creating it", "class", class.Class)
	if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create schema for class %s: %w", class.Class, err)
	}
	slog.Info("Successfully created schema", "class", class.Class)
	return nil
}
