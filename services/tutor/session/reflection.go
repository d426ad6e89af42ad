// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/mentora-ai/mentora/services/llm"
	"github.com/mentora-ai/mentora/services/tutor/datatypes"
	"github.com/mentora-ai/mentora/services/tutor/observability"
)

// PerfectReflection is the fixed message substituted when no correction is
// needed, saving a generator round trip.
const PerfectReflection = "Great job, your answer fully addresses the question and shows solid understanding. Keep it up!"

// maxCitationTitle bounds the cleaned title length in citation openers.
const maxCitationTitle = 48

// citationOpeners are templated with the top passage's 1-indexed page and its
// cleaned title. A reflection continuation is appended with its first letter
// lowered.
var citationOpeners = []string{
	"You're close! Page %d of %q covers this, so",
	"Good effort. Take another look at page %d of %q, and note that",
	"Almost there! Page %d of %q has what you need, because",
}

// ReflectionPolicy decides between canned success messages and generated
// reflections or hints, and anchors generated guidance to the best-ranked
// retrieved passage.
type ReflectionPolicy struct {
	generator llm.LLMClient
	timeout   func(context.Context) (context.Context, context.CancelFunc)
	turn      atomic.Uint64
}

// NewReflectionPolicy wires the generator used for reflections and hints.
func NewReflectionPolicy(generator llm.LLMClient, cfg Config) *ReflectionPolicy {
	return &ReflectionPolicy{
		generator: generator,
		timeout: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithTimeout(ctx, cfg.GeneratorTimeout)
		},
	}
}

// ReflectionInput carries everything the reflection prompt embeds.
type ReflectionInput struct {
	Question     string
	UserAnswer   string
	Reference    string
	NotesContext string
	Feedback     string
}

// Reflect generates improvement guidance for a scored attempt and decorates
// it with a citation opener when a passage is available to anchor one.
func (p *ReflectionPolicy) Reflect(ctx context.Context, in ReflectionInput,
	passages []datatypes.ContextPassage) (string, error) {

	prompt := reflectionPrompt(in.Question, in.UserAnswer, in.Reference,
		in.NotesContext, joinPassages(passages), in.Feedback)

	genCtx, cancel := p.timeout(ctx)
	defer cancel()
	reflection, err := p.generator.Generate(genCtx, prompt, llm.GenerationParams{})
	if err != nil {
		observability.RecordGeneratorCall("reflection", "error")
		return "", &Error{Code: CodeGeneration, Op: "policy.Reflect", Err: err}
	}
	observability.RecordGeneratorCall("reflection", "success")
	return p.decorate(reflection, passages), nil
}

// Hint generates a hint-only completion for the current question, decorated
// the same way.
func (p *ReflectionPolicy) Hint(ctx context.Context, question string,
	passages []datatypes.ContextPassage) (string, error) {

	genCtx, cancel := p.timeout(ctx)
	defer cancel()
	hint, err := p.generator.Generate(genCtx,
		hintPrompt(question, joinPassages(passages)), llm.GenerationParams{})
	if err != nil {
		observability.RecordGeneratorCall("hint", "error")
		return "", &Error{Code: CodeGeneration, Op: "policy.Hint", Err: err}
	}
	observability.RecordGeneratorCall("hint", "success")
	return p.decorate(hint, passages), nil
}

// decorate prefixes text with a citation opener built from the best-ranked
// passage. Without a passage there is nothing to cite, so text passes
// through unchanged.
func (p *ReflectionPolicy) decorate(text string, passages []datatypes.ContextPassage) string {
	text = strings.TrimSpace(text)
	if len(passages) == 0 || text == "" {
		return text
	}
	top := passages[0]
	opener := citationOpeners[p.turn.Add(1)%uint64(len(citationOpeners))]
	// Stored pages are 0-indexed; learners see 1-indexed.
	return fmt.Sprintf(opener, top.Page+1, cleanTitle(top.Title)) + " " + lowerFirst(text)
}

// cleanTitle strips retrieval artifacts from a passage title: a trailing
// " | source..." segment, a dash-delimited suffix, and anything beyond the
// length bound (marked with an ellipsis).
func cleanTitle(title string) string {
	if i := strings.Index(title, " | "); i >= 0 {
		title = title[:i]
	}
	if i := strings.LastIndex(title, " - "); i > 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "your notes"
	}
	if utf8.RuneCountInString(title) > maxCitationTitle {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:maxCitationTitle])) + "…"
	}
	return title
}

// lowerFirst lowers the first letter so the continuation reads as part of
// the opener's sentence.
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
