// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Question is one entry of the ordered question list. Ordinal is the position
// in presentation order; Number is the label parsed from the source document
// and is what keys the reference answers. The two are usually equal but the
// document wins when they differ.
type Question struct {
	Ordinal int    `json:"ordinal"`
	Number  int    `json:"number"`
	Text    string `json:"text"`
}

// ContextPassage is one retrieved grounding excerpt. Page is 0-indexed as
// stored in the vector DB; user-facing citations add 1. Ordering is
// relevance-ranked, best first.
type ContextPassage struct {
	Text  string `json:"text"`
	Page  int    `json:"page"`
	Title string `json:"title"`
}

// AttemptResult records one submitted answer. Appended to the session result
// log, never mutated. Skips and hints do not produce one.
type AttemptResult struct {
	Question   string `json:"question"`
	UserAnswer string `json:"user_answer"`
	Accuracy   int    `json:"accuracy"`
	Feedback   string `json:"feedback"`
}

// numberedLine matches the "<int>. text" convention used by both the question
// and the answer documents.
var numberedLine = regexp.MustCompile(`^(\d+)\s*[.)]\s*(.*)$`)

// ParseQuestions extracts the ordered question list from a plain-text
// question document. Lines that do not match the numbered convention are
// dropped with a diagnostic, not an error.
func ParseQuestions(text string) []Question {
	var questions []Question
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			slog.Warn("Dropping unnumbered line from question document", "line", line)
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			slog.Warn("Dropping question with unparseable number", "line", line)
			continue
		}
		questions = append(questions, Question{
			Ordinal: len(questions),
			Number:  number,
			Text:    strings.TrimSpace(m[2]),
		})
	}
	return questions
}

// ParseNumberedAnswers extracts reference answers keyed by question number.
// Continuation lines (no leading number) are concatenated with a single space
// into the preceding entry.
func ParseNumberedAnswers(text string) map[int]string {
	answers := make(map[int]string)
	currentKey := -1
	var currentLines []string

	flush := func() {
		if currentKey >= 0 {
			answers[currentKey] = strings.TrimSpace(strings.Join(currentLines, " "))
		}
		currentLines = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			if key, err := strconv.Atoi(m[1]); err == nil {
				flush()
				currentKey = key
				currentLines = append(currentLines, strings.TrimSpace(m[2]))
				continue
			}
		}
		if currentKey < 0 {
			// Preamble before the first numbered entry.
			continue
		}
		currentLines = append(currentLines, line)
	}
	flush()
	return answers
}
