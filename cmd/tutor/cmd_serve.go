// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentora-ai/mentora/services/tutor"
)

func runServe(cmd *cobra.Command, args []string) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	svc, err := tutor.New(tutor.Config{
		Port:              servePort,
		SessionConfigPath: serveConfig,
		EnableMetrics:     serveMetrics,
	})
	if err != nil {
		log.Fatalf("Failed to build the tutor service: %v", err)
	}
	if err := svc.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
