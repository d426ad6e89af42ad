// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
	"github.com/mentora-ai/mentora/services/tutor/material"
	"github.com/mentora-ai/mentora/services/tutor/observability"
	"github.com/mentora-ai/mentora/services/tutor/session"
)

// chatEnvelope flattens the transition response with the effective user id,
// so clients that omitted user_id learn the one they were assigned.
type chatEnvelope struct {
	*datatypes.ChatResponse
	UserId string `json:"user_id"`
}

// Chat drives one tutoring turn: decode the control token or answer, resolve
// the learner's session, and run the transition.
func Chat(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId := c.Param("sessionId")

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		userId := req.UserId
		if userId == "" {
			userId = uuid.NewString()
		}

		sig := datatypes.DecodeSignal(req.UserAnswer, req.QuestionIndex)

		machine, err := registry.GetOrCreate(c.Request.Context(), sessionId, userId)
		if err != nil {
			if errors.Is(err, material.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "No materials uploaded for this session"})
				return
			}
			slog.Error("Failed to build session", "session_id", sessionId, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			return
		}

		resp, err := machine.Transition(c.Request.Context(), sig)
		if err != nil {
			observability.RecordTransition(sig.Kind.String(), "error")
			switch session.CodeOf(err) {
			case session.CodeSessionClosed:
				c.JSON(http.StatusNotFound, gin.H{"error": "Session no longer exists"})
			case session.CodeStaleSubmission:
				c.JSON(http.StatusConflict, gin.H{
					"error":         "Submission was for a question that is no longer current",
					"current_index": machine.CurrentIndex(),
				})
			default:
				slog.Error("Transition failed",
					"session_id", sessionId,
					"signal", sig.Kind.String(),
					"error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			}
			return
		}

		observability.RecordTransition(sig.Kind.String(), "success")
		c.JSON(http.StatusOK, chatEnvelope{ChatResponse: resp, UserId: userId})
	}
}
