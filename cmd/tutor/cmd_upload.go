// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func runUpload(cmd *cobra.Command, args []string) {
	sessionId := args[0]

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	files := map[string]string{
		"notes":     notesPath,
		"questions": questionsPath,
	}
	if answersPath != "" {
		files["answers"] = answersPath
	}
	for field, path := range files {
		if err := attachFile(writer, field, path); err != nil {
			log.Fatalf("Error attaching %s: %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		log.Fatalf("Error finalizing upload: %v", err)
	}

	url := fmt.Sprintf("%s/v1/materials/%s", serverURL, sessionId)
	req, err := http.NewRequest("POST", url, body)
	if err != nil {
		log.Fatalf("Error building request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Error uploading materials: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("Upload failed (%d): %s", resp.StatusCode, string(respBody))
	}
	fmt.Printf("Materials uploaded for session %s\n%s\n", sessionId, string(respBody))
}

func attachFile(writer *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
