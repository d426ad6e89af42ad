// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mentora-ai/mentora/services/llm"
	"github.com/mentora-ai/mentora/services/tutor/datatypes"
	"github.com/mentora-ai/mentora/services/tutor/observability"
)

// AnswerOrigin says where a reference answer came from.
type AnswerOrigin int

const (
	OriginParsed AnswerOrigin = iota
	OriginGenerated
)

// ReferenceAnswer is one canonical answer, keyed by question number.
type ReferenceAnswer struct {
	Text   string
	Origin AnswerOrigin
}

// ReferenceAnswerStore holds the canonical answers for one session. Parsed
// answers are loaded once at construction; missing keys are filled lazily by
// a single generator call and cached for the life of the store. Generation is
// exactly-once per key: later calls are pure cache reads even when the
// passages differ.
type ReferenceAnswerStore struct {
	mu        sync.Mutex
	generator llm.LLMClient
	timeout   func(context.Context) (context.Context, context.CancelFunc)
	answers   map[int]ReferenceAnswer
}

// NewReferenceAnswerStore parses answerDoc (numbered-list convention) and
// wires the generator used for on-demand answers.
func NewReferenceAnswerStore(answerDoc string, generator llm.LLMClient, cfg Config) *ReferenceAnswerStore {
	parsed := datatypes.ParseNumberedAnswers(answerDoc)
	answers := make(map[int]ReferenceAnswer, len(parsed))
	for number, text := range parsed {
		answers[number] = ReferenceAnswer{Text: text, Origin: OriginParsed}
	}
	slog.Info("Loaded reference answers", "parsed", len(answers))
	return &ReferenceAnswerStore{
		generator: generator,
		timeout: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithTimeout(ctx, cfg.GeneratorTimeout)
		},
		answers: answers,
	}
}

// GetOrGenerate returns the reference answer for questionNumber, generating
// and caching it on a miss. The generator is constrained to the supplied
// passages as grounding. A generation failure is returned as a
// GenerationError and nothing is cached, so the next call retries.
func (s *ReferenceAnswerStore) GetOrGenerate(ctx context.Context, questionNumber int,
	questionText string, passages []datatypes.ContextPassage) (string, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if ans, ok := s.answers[questionNumber]; ok {
		return ans.Text, nil
	}

	slog.Info("Reference answer missing, generating from context",
		"question_number", questionNumber)
	genCtx, cancel := s.timeout(ctx)
	defer cancel()
	text, err := s.generator.Generate(genCtx,
		referenceAnswerPrompt(questionText, joinPassages(passages)), llm.GenerationParams{})
	if err != nil {
		observability.RecordGeneratorCall("reference", "error")
		return "", &Error{Code: CodeGeneration, Op: "answers.GetOrGenerate", Err: err}
	}
	observability.RecordGeneratorCall("reference", "success")

	s.answers[questionNumber] = ReferenceAnswer{Text: text, Origin: OriginGenerated}
	return text, nil
}

// Lookup returns the cached answer without generating.
func (s *ReferenceAnswerStore) Lookup(questionNumber int) (ReferenceAnswer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ans, ok := s.answers[questionNumber]
	return ans, ok
}

// ParsedCount reports how many answers came from the answer document.
func (s *ReferenceAnswerStore) ParsedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ans := range s.answers {
		if ans.Origin == OriginParsed {
			n++
		}
	}
	return n
}
