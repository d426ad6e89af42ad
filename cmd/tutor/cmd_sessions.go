// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type sessionListing struct {
	Sessions []struct {
		SessionId string `json:"session_id"`
		UserId    string `json:"user_id"`
		Index     int    `json:"index"`
		Total     int    `json:"total_questions"`
		Complete  bool   `json:"complete"`
		Attempts  int    `json:"attempts"`
	} `json:"sessions"`
}

func runSessions(cmd *cobra.Command, args []string) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(serverURL + "/v1/sessions")
	if err != nil {
		log.Fatalf("Error listing sessions: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, string(body))
	}

	var listing sessionListing
	if err := json.Unmarshal(body, &listing); err != nil {
		log.Fatalf("Error parsing response: %v", err)
	}
	if len(listing.Sessions) == 0 {
		fmt.Println("No live sessions.")
		return
	}
	for _, s := range listing.Sessions {
		status := fmt.Sprintf("question %d of %d", s.Index+1, s.Total)
		if s.Complete {
			status = "complete"
		}
		fmt.Printf("%s (user %s): %s, %d attempts\n", s.SessionId, s.UserId, status, s.Attempts)
	}
}

func runClear(cmd *cobra.Command, args []string) {
	req, err := http.NewRequest("DELETE", serverURL+"/v1/sessions", nil)
	if err != nil {
		log.Fatalf("Error building request: %v", err)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Error clearing sessions: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, string(body))
	}
	fmt.Printf("Cleared: %s\n", string(body))
}
