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
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mentora-ai/mentora/services/llm"
	"github.com/mentora-ai/mentora/services/tutor/datatypes"
	"github.com/mentora-ai/mentora/services/tutor/observability"
)

// accuracyPattern matches the labeled score in a completion: 1-3 digits,
// optional decimals, optional trailing percent sign.
var accuracyPattern = regexp.MustCompile(`(?i)accuracy:\s*(\d{1,3}(?:\.\d+)?)(?:\s*%)?`)

// bareScorePattern is the fallback for completions that drop the label but
// still carry an explicit percentage.
var bareScorePattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)

// AccuracyScorer turns a generator completion into (feedback, accuracy).
// Extraction is best-effort: a completion without the expected markers still
// yields some feedback string and some integer score, never an error.
type AccuracyScorer struct {
	generator llm.LLMClient
	timeout   func(context.Context) (context.Context, context.CancelFunc)
}

// NewAccuracyScorer wires the generator used for evaluation completions.
func NewAccuracyScorer(generator llm.LLMClient, cfg Config) *AccuracyScorer {
	return &AccuracyScorer{
		generator: generator,
		timeout: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithTimeout(ctx, cfg.GeneratorTimeout)
		},
	}
}

// Score evaluates userAnswer against reference using the notes context and
// retrieved passages. The only error it returns is a GenerationError from the
// LLM call itself; malformed completions degrade to (whole text, 0).
func (s *AccuracyScorer) Score(ctx context.Context, question, userAnswer, reference,
	notesContext string, passages []datatypes.ContextPassage) (string, int, error) {

	prompt := evaluationPrompt(question, userAnswer, reference, notesContext,
		joinPassages(passages))

	genCtx, cancel := s.timeout(ctx)
	defer cancel()
	completion, err := s.generator.Generate(genCtx, prompt, llm.GenerationParams{})
	if err != nil {
		observability.RecordGeneratorCall("score", "error")
		return "", 0, &Error{Code: CodeGeneration, Op: "scorer.Score", Err: err}
	}
	observability.RecordGeneratorCall("score", "success")

	feedback := extractFeedback(completion)
	accuracy, ok := extractAccuracy(completion)
	if !ok {
		slog.Warn("No accuracy token in evaluation completion, defaulting to 0",
			"code", CodeParse)
	}
	return feedback, accuracy, nil
}

// extractFeedback returns the text after the first case-insensitive
// "Feedback:" line prefix, or the whole completion when absent.
func extractFeedback(completion string) string {
	for _, line := range strings.Split(completion, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= len("feedback:") &&
			strings.EqualFold(trimmed[:len("feedback:")], "feedback:") {
			return strings.TrimSpace(trimmed[len("feedback:"):])
		}
	}
	return completion
}

// extractAccuracy pulls the first numeric token from the completion, rounds
// decimals, and clamps to [0,100]. ok is false when no token matched.
func extractAccuracy(completion string) (int, bool) {
	m := accuracyPattern.FindStringSubmatch(completion)
	if m == nil {
		m = bareScorePattern.FindStringSubmatch(completion)
	}
	if m == nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return clampAccuracy(int(math.Round(score))), true
}

// clampAccuracy bounds a score to [0,100].
func clampAccuracy(accuracy int) int {
	if accuracy < 0 {
		return 0
	}
	if accuracy > 100 {
		return 100
	}
	return accuracy
}
