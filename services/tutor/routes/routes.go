// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mentora-ai/mentora/services/tutor/handlers"
	"github.com/mentora-ai/mentora/services/tutor/material"
	"github.com/mentora-ai/mentora/services/tutor/session"
)

// Deps bundles what the route tree needs. Indexer covers both the upload
// path and the bulk clear.
type Deps struct {
	Registry *session.Registry
	Store    *material.Store
	Indexer  handlers.NotesIndexer
	Deleter  handlers.NotesDeleter

	// EnableMetrics exposes /metrics with the Prometheus handler.
	EnableMetrics bool
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	if deps.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/materials/:sessionId", handlers.UploadMaterials(deps.Store, deps.Indexer))
		v1.POST("/chat/:sessionId", handlers.Chat(deps.Registry))

		sessions := v1.Group("/sessions")
		{
			sessions.GET("", handlers.ListSessions(deps.Registry))
			sessions.DELETE("", handlers.ClearSessions(deps.Registry, deps.Store, deps.Deleter))
		}
	}
}
