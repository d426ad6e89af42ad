// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package material holds the uploaded study documents for each session:
// PDF text extraction at upload time and an in-memory store the session
// factory reads questions and answers from.
package material

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPages pulls plain text out of an uploaded PDF, one entry per page.
// Pages that fail extraction come back empty rather than failing the whole
// document; scanned pages without a text layer are a normal occurrence.
func ExtractPages(data []byte, filename string) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", filename, err)
	}

	total := reader.NumPage()
	pages := make([]string, total)
	empty := 0
	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			empty++
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("Failed to extract page text",
				"file", filename,
				"page", pageNum,
				"error", err)
			empty++
			continue
		}
		pages[pageNum-1] = text
	}

	if empty == total {
		return nil, fmt.Errorf("pdf %s has no extractable text", filename)
	}
	slog.Info("Extracted PDF text",
		"file", filename,
		"pages", total,
		"empty_pages", empty)
	return pages, nil
}

// ExtractText is ExtractPages flattened into one document string, used for
// the question and answer sheets where page boundaries do not matter.
func ExtractText(data []byte, filename string) (string, error) {
	pages, err := ExtractPages(data, filename)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		b.WriteString(page)
		b.WriteString("\n")
	}
	return b.String(), nil
}
