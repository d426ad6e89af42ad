// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
	"github.com/mentora-ai/mentora/services/tutor/material"
	"github.com/mentora-ai/mentora/services/tutor/retrieval"
)

// maxUploadBytes bounds each uploaded PDF.
const maxUploadBytes = 32 << 20

// NotesIndexer is the slice of the ingestion pipeline the upload handler
// needs.
type NotesIndexer interface {
	IndexNotes(ctx context.Context, sessionId, title string, pages []string) (int, error)
	DeleteSessionNotes(ctx context.Context, sessionId string) (int, error)
}

var _ NotesIndexer = (*retrieval.Indexer)(nil)

// UploadMaterials ingests a session's study materials: required "notes" and
// "questions" PDFs and an optional "answers" PDF. Notes are chunked into the
// vector store; questions and answers are parsed into the material store. A
// re-upload replaces everything the previous upload produced.
func UploadMaterials(store *material.Store, indexer NotesIndexer) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId := c.Param("sessionId")

		notesData, notesName, err := formPDF(c, "notes")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		questionsData, questionsName, err := formPDF(c, "questions")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		answersData, answersName, err := optionalFormPDF(c, "answers")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var (
			notesPages   []string
			questionsDoc string
			answerDoc    string
		)
		g := new(errgroup.Group)
		g.Go(func() error {
			var err error
			notesPages, err = material.ExtractPages(notesData, notesName)
			return err
		})
		g.Go(func() error {
			var err error
			questionsDoc, err = material.ExtractText(questionsData, questionsName)
			return err
		})
		if answersData != nil {
			g.Go(func() error {
				var err error
				answerDoc, err = material.ExtractText(answersData, answersName)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			slog.Error("PDF extraction failed", "session_id", sessionId, "error", err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		questions := datatypes.ParseQuestions(questionsDoc)
		if len(questions) == 0 {
			c.JSON(http.StatusUnprocessableEntity,
				gin.H{"error": "No numbered questions found in the questions document"})
			return
		}

		// Previous chunks for this session are dropped so a re-upload fully
		// replaces the notes.
		ctx := c.Request.Context()
		if _, err := indexer.DeleteSessionNotes(ctx, sessionId); err != nil {
			slog.Warn("Failed to clear previous chunks", "session_id", sessionId, "error", err)
		}
		chunks, err := indexer.IndexNotes(ctx, sessionId, notesName, notesPages)
		if err != nil {
			slog.Error("Notes indexing failed", "session_id", sessionId, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to index notes"})
			return
		}

		bundle := material.Bundle{
			SessionId:     sessionId,
			NotesTitle:    notesName,
			NotesPages:    len(notesPages),
			Questions:     questions,
			AnswerDoc:     answerDoc,
			ChunksIndexed: chunks,
			UploadedAt:    time.Now(),
		}
		store.Put(bundle)

		slog.Info("Materials uploaded",
			"session_id", sessionId,
			"questions", len(questions),
			"chunks_indexed", chunks,
			"has_answers", answersData != nil)
		c.JSON(http.StatusCreated, gin.H{
			"status":         "success",
			"session_id":     sessionId,
			"questions":      len(questions),
			"chunks_indexed": chunks,
		})
	}
}

// formPDF reads a required multipart file field.
func formPDF(c *gin.Context, field string) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q file field", field)
	}
	return readFormFile(header, field)
}

// optionalFormPDF reads an optional field; absence is not an error.
func optionalFormPDF(c *gin.Context, field string) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", nil
	}
	return readFormFile(header, field)
}

func readFormFile(header *multipart.FileHeader, field string) ([]byte, string, error) {
	if header.Size > maxUploadBytes {
		return nil, "", fmt.Errorf("%q file exceeds the %d MB limit", field, maxUploadBytes>>20)
	}
	f, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open %q file: %w", field, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %q file: %w", field, err)
	}
	if len(data) > maxUploadBytes {
		return nil, "", fmt.Errorf("%q file exceeds the %d MB limit", field, maxUploadBytes>>20)
	}
	return data, header.Filename, nil
}
