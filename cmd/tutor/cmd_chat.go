// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
)

// turnResult is the chat endpoint response plus the server-assigned user id.
type turnResult struct {
	datatypes.ChatResponse
	UserId string `json:"user_id"`
}

func runChat(cmd *cobra.Command, args []string) {
	sessionId := args[0]
	userId := chatUserId
	index := 0

	fmt.Println("Starting session. Type your answer, or: next (skip), hint, end (quit).")

	resp, err := sendTurn(sessionId, userId, datatypes.TokenStartSession, index)
	if err != nil {
		log.Fatalf("Error starting session: %v", err)
	}
	userId = resp.UserId
	index = resp.Index
	printTurn(resp)
	if resp.Complete {
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		var answer string
		switch strings.ToLower(line) {
		case "":
			continue
		case "next", "skip":
			answer = datatypes.TokenNextQuestion
		case "hint":
			answer = datatypes.TokenGetHintOnly
		case "end", "exit", "quit":
			answer = datatypes.TokenEndChat
		default:
			answer = line
		}

		resp, err := sendTurn(sessionId, userId, answer, index)
		if err != nil {
			log.Printf("Error: %v", err)
			continue
		}
		index = resp.Index
		printTurn(resp)

		if answer == datatypes.TokenEndChat || resp.Complete {
			return
		}
	}
}

func sendTurn(sessionId, userId, answer string, index int) (*turnResult, error) {
	payload, err := json.Marshal(datatypes.ChatRequest{
		UserId:        userId,
		UserAnswer:    answer,
		QuestionIndex: index,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/chat/%s", serverURL, sessionId)
	client := &http.Client{Timeout: 5 * time.Minute}
	httpResp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", httpResp.StatusCode, string(body))
	}

	var result turnResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// printTurn renders one response. The message uses <br/> as its line break,
// a holdover from browser clients.
func printTurn(resp *turnResult) {
	if resp.Message != "" {
		fmt.Println(strings.ReplaceAll(resp.Message, "<br/>", "\n"))
	}
	if resp.FinalSummary != "" {
		fmt.Println("\n--- Session summary ---")
		fmt.Println(strings.ReplaceAll(resp.FinalSummary, "<br/>", "\n"))
	}
	if resp.Question != nil {
		fmt.Printf("\n[%d/%d] %s\n", resp.Index+1, resp.TotalQuestions, *resp.Question)
	}
}
