// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL string

	servePort    string
	serveConfig  string
	serveMetrics bool

	notesPath     string
	questionsPath string
	answersPath   string

	chatUserId string

	rootCmd = &cobra.Command{
		Use:   "tutor",
		Short: "A cli for the Mentora adaptive tutoring service",
		Long: `Tutor manages adaptive Q&A study sessions: upload your study
materials, then chat through the questions with grounded hints and feedback.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the tutoring HTTP service",
		Run:   runServe, // Defined in cmd_serve.go
	}

	uploadCmd = &cobra.Command{
		Use:   "upload [sessionId]",
		Short: "Upload notes, questions, and optional answers PDFs for a session",
		Args:  cobra.ExactArgs(1),
		Run:   runUpload, // Defined in cmd_upload.go
	}

	chatCmd = &cobra.Command{
		Use:   "chat [sessionId]",
		Short: "Work through a session's questions interactively",
		Args:  cobra.ExactArgs(1),
		Run:   runChat, // Defined in cmd_chat.go
	}

	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "List live tutoring sessions",
		Run:   runSessions, // Defined in cmd_sessions.go
	}

	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "DANGER: Delete all sessions, materials, and indexed notes",
		Run:   runClear, // Defined in cmd_sessions.go
	}
)

func init() {
	defaultServer := os.Getenv("TUTOR_SERVER_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:12310"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer,
		"Base URL of the tutor service")

	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default $TUTOR_PORT or 12310)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to a session tuning YAML file")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "Expose Prometheus metrics on /metrics")

	uploadCmd.Flags().StringVar(&notesPath, "notes", "", "Path to the study notes PDF (required)")
	uploadCmd.Flags().StringVar(&questionsPath, "questions", "", "Path to the questions PDF (required)")
	uploadCmd.Flags().StringVar(&answersPath, "answers", "", "Path to the reference answers PDF")
	_ = uploadCmd.MarkFlagRequired("notes")
	_ = uploadCmd.MarkFlagRequired("questions")

	chatCmd.Flags().StringVar(&chatUserId, "user", "", "User id to resume a session as")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(clearCmd)
}
