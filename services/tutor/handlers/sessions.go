// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentora-ai/mentora/services/tutor/material"
	"github.com/mentora-ai/mentora/services/tutor/session"
)

// NotesDeleter is the slice of the ingestion pipeline the bulk clear needs.
type NotesDeleter interface {
	DeleteAllNotes(ctx context.Context) (int, error)
}

// ListSessions reports every live tutoring session with its progress.
func ListSessions(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": registry.List()})
	}
}

// ClearSessions tears down everything: live sessions, uploaded materials,
// and every indexed chunk. Stale session handles are invalidated, not left
// to keep answering.
func ClearSessions(registry *session.Registry, store *material.Store, deleter NotesDeleter) gin.HandlerFunc {
	return func(c *gin.Context) {
		slog.Info("Received request to clear all sessions")

		sessions := registry.ClearAll()
		bundles := store.Clear()

		chunks, err := deleter.DeleteAllNotes(c.Request.Context())
		if err != nil {
			slog.Error("Failed to delete indexed chunks", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":            "Sessions cleared but chunk deletion failed",
				"sessions_cleared": sessions,
			})
			return
		}

		slog.Info("Cleared all sessions",
			"sessions", sessions,
			"bundles", bundles,
			"chunks_deleted", chunks)
		c.JSON(http.StatusOK, gin.H{
			"status":           "success",
			"sessions_cleared": sessions,
			"bundles_cleared":  bundles,
			"chunks_deleted":   chunks,
		})
	}
}
