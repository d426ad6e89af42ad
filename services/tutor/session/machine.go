// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session implements the tutoring session engine: the per-learner
// state machine that sequences questions, resolves reference answers, scores
// free-text answers, coaches retries, and aggregates a final summary.
//
// The engine talks to two capabilities only: a Retriever (query to ranked
// passages) and an llm.LLMClient (prompt to completion). Everything else,
// PDF parsing, chunking, embedding, vector search, lives behind those
// boundaries.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mentora-ai/mentora/services/llm"
	"github.com/mentora-ai/mentora/services/tutor/datatypes"
	"github.com/mentora-ai/mentora/services/tutor/observability"
)

var machineTracer = otel.Tracer("mentora.tutor.session")

// Retriever maps a text query to relevance-ranked grounding passages, best
// first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]datatypes.ContextPassage, error)
}

// PerfectMatchFeedback is the fixed feedback for the exact-match fast path.
const PerfectMatchFeedback = "Exact match with the reference answer. Perfect!"

// User-safe degradation messages. Internal failures never abort a session;
// the learner always gets text and can continue.
const (
	msgHintNoMaterial  = "No relevant material was found to build a hint from. Try answering with what you remember."
	msgHintFailed      = "Sorry, a hint could not be generated right now. Please try again."
	msgEvalFailed      = "Sorry, your answer could not be evaluated right now. Please submit it again."
	msgReflectFailed   = "A reflection could not be generated this time. Review the feedback and give it another try."
	msgAllDone         = "All questions completed."
	msgWelcome         = "Welcome! Here's your first question:"
	msgChatEnded       = "Chat ended. Thank you."
	msgSessionComplete = "This session is already complete."
)

// Deps are the collaborators and identity of one state machine.
type Deps struct {
	SessionId string
	UserId    string

	// Questions is the ordered question list, presentation order.
	Questions []datatypes.Question

	// AnswerDoc is the plain text of the reference answer document. May be
	// empty; missing answers are generated on demand.
	AnswerDoc string

	Retriever Retriever
	Generator llm.LLMClient
	Config    Config
}

// StateMachine owns one learner's session state. All mutation goes through
// Transition, which serializes concurrent calls for the same session so a
// submission is counted exactly once.
type StateMachine struct {
	mu sync.Mutex

	sessionId string
	userId    string
	questions []datatypes.Question
	retriever Retriever
	generator llm.LLMClient
	answers   *ReferenceAnswerStore
	scorer    *AccuracyScorer
	policy    *ReflectionPolicy
	cfg       Config

	// notesContext is a session-wide grounding summary fetched once at
	// construction.
	notesContext string

	currentIndex    int
	results         []datatypes.AttemptResult
	waitingForRetry bool
	ended           bool

	// closed is set by the registry's bulk clear; a closed machine rejects
	// every transition with CodeSessionClosed.
	closed atomic.Bool
}

// NewStateMachine builds a machine and seeds its notes context with a single
// retrieval. A failed seed retrieval degrades to an empty context.
func NewStateMachine(ctx context.Context, deps Deps) *StateMachine {
	deps.Config.normalize()
	m := &StateMachine{
		sessionId: deps.SessionId,
		userId:    deps.UserId,
		questions: deps.Questions,
		retriever: deps.Retriever,
		generator: deps.Generator,
		answers:   NewReferenceAnswerStore(deps.AnswerDoc, deps.Generator, deps.Config),
		scorer:    NewAccuracyScorer(deps.Generator, deps.Config),
		policy:    NewReflectionPolicy(deps.Generator, deps.Config),
		cfg:       deps.Config,
	}
	if passages := m.retrieve(ctx, "summary", 1); len(passages) > 0 {
		m.notesContext = passages[0].Text
	}
	slog.Info("Created tutoring session",
		"session_id", m.sessionId,
		"user_id", m.userId,
		"questions", len(m.questions),
		"parsed_answers", m.answers.ParsedCount())
	return m
}

// SessionId returns the session identifier.
func (m *StateMachine) SessionId() string { return m.sessionId }

// UserId returns the user identifier.
func (m *StateMachine) UserId() string { return m.userId }

// CurrentIndex returns the active question position.
func (m *StateMachine) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentIndex
}

// TotalQuestions returns the question count.
func (m *StateMachine) TotalQuestions() int { return len(m.questions) }

// IsComplete reports whether the session is terminal, either by walking past
// the last question or by an explicit end signal.
func (m *StateMachine) IsComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isCompleteLocked()
}

func (m *StateMachine) isCompleteLocked() bool {
	return m.ended || m.currentIndex >= len(m.questions)
}

// Results returns a copy of the attempt log.
func (m *StateMachine) Results() []datatypes.AttemptResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]datatypes.AttemptResult, len(m.results))
	copy(out, m.results)
	return out
}

// WaitingForRetry reports whether the last submission fell below the advance
// boundary.
func (m *StateMachine) WaitingForRetry() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitingForRetry
}

// Close invalidates the machine. Subsequent transitions fail with
// CodeSessionClosed.
func (m *StateMachine) Close() { m.closed.Store(true) }

// Transition is the single public entry point: one decoded signal in, one
// response out. Internal retrieval, generation, and parse failures degrade to
// user-safe text; the only returned errors are policy rejections
// (SessionClosed, StaleSubmission).
func (m *StateMachine) Transition(ctx context.Context, sig datatypes.Signal) (*datatypes.ChatResponse, error) {
	if m.closed.Load() {
		return nil, &Error{Code: CodeSessionClosed, Op: "machine.Transition"}
	}

	ctx, span := machineTracer.Start(ctx, "StateMachine.Transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", m.sessionId),
		attribute.String("signal", sig.Kind.String()),
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	switch sig.Kind {
	case datatypes.SignalStart:
		return m.handleStart(), nil
	case datatypes.SignalEnd:
		return m.handleEnd(), nil
	case datatypes.SignalSkip:
		return m.handleSkip(), nil
	case datatypes.SignalHint:
		return m.handleHint(ctx), nil
	default:
		return m.handleAnswer(ctx, sig)
	}
}

// handleStart returns the first question without consuming an attempt.
func (m *StateMachine) handleStart() *datatypes.ChatResponse {
	if m.isCompleteLocked() {
		return m.response(msgAllDone, nil, false)
	}
	question := m.questions[m.currentIndex].Text
	return m.response(msgWelcome, &question, false)
}

// handleEnd marks the session complete. Terminal and idempotent.
func (m *StateMachine) handleEnd() *datatypes.ChatResponse {
	m.ended = true
	m.waitingForRetry = false
	return m.response(msgChatEnded, nil, false)
}

// handleSkip abandons the current question: the index advances and no
// attempt is recorded.
func (m *StateMachine) handleSkip() *datatypes.ChatResponse {
	if m.isCompleteLocked() {
		return m.response(msgAllDone, nil, false)
	}
	m.currentIndex++
	m.waitingForRetry = false

	if m.isCompleteLocked() {
		return m.response(msgAllDone, nil, false)
	}
	question := m.questions[m.currentIndex].Text
	msg := fmt.Sprintf("Question %d of %d:<br/>%s", m.currentIndex+1, len(m.questions), question)
	return m.response(msg, &question, false)
}

// handleHint is a side channel: it never touches currentIndex or results,
// and every failure is converted to a user-safe message.
func (m *StateMachine) handleHint(ctx context.Context) *datatypes.ChatResponse {
	if m.isCompleteLocked() {
		return m.response(msgSessionComplete, nil, false)
	}
	question := m.questions[m.currentIndex]

	passages := m.retrieve(ctx, question.Text, m.cfg.TopK)
	if len(passages) == 0 {
		return m.response(msgHintNoMaterial, nil, true)
	}

	hint, err := m.policy.Hint(ctx, question.Text, passages)
	if err != nil {
		slog.Error("Hint generation failed",
			"session_id", m.sessionId, "code", CodeOf(err), "error", err)
		return m.response(msgHintFailed, nil, true)
	}
	return m.response(hint, nil, true)
}

// handleAnswer runs the evaluation algorithm for one submitted attempt.
func (m *StateMachine) handleAnswer(ctx context.Context, sig datatypes.Signal) (*datatypes.ChatResponse, error) {
	if sig.QuestionIndex >= 0 && sig.QuestionIndex != m.currentIndex {
		return nil, &Error{
			Code: CodeStaleSubmission,
			Op:   "machine.handleAnswer",
			Err:  fmt.Errorf("submitted for question %d, current is %d", sig.QuestionIndex, m.currentIndex),
		}
	}
	if m.isCompleteLocked() {
		return m.response(msgAllDone, nil, false), nil
	}

	question := m.questions[m.currentIndex]
	passages := m.retrieve(ctx, question.Text, m.cfg.TopK)

	reference, err := m.answers.GetOrGenerate(ctx, question.Number, question.Text, passages)
	if err != nil {
		slog.Error("Reference answer generation failed",
			"session_id", m.sessionId, "question_number", question.Number,
			"code", CodeOf(err), "error", err)
		return m.response(msgEvalFailed, nil, true), nil
	}

	feedback, accuracy, evaluated := "", 0, false
	if exactMatch(sig.Answer, reference) {
		// Fast path: no scoring round trip on a verbatim answer.
		feedback, accuracy, evaluated = PerfectMatchFeedback, m.cfg.Thresholds.ExactMatch, true
	}
	if !evaluated {
		feedback, accuracy, err = m.scorer.Score(ctx, question.Text, sig.Answer,
			reference, m.notesContext, passages)
		if err != nil {
			slog.Error("Answer evaluation failed",
				"session_id", m.sessionId, "question_number", question.Number,
				"code", CodeOf(err), "error", err)
			return m.response(msgEvalFailed, nil, true), nil
		}
		accuracy = clampAccuracy(accuracy)
	}

	m.results = append(m.results, datatypes.AttemptResult{
		Question:   question.Text,
		UserAnswer: sig.Answer,
		Accuracy:   accuracy,
		Feedback:   feedback,
	})
	observability.ObserveAccuracy(accuracy)

	reflection := m.reflect(ctx, question.Text, sig.Answer, reference, feedback, accuracy, passages)

	if accuracy > m.cfg.Thresholds.Advance {
		m.currentIndex++
		m.waitingForRetry = false
	} else {
		m.waitingForRetry = true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Accuracy: %d%%", accuracy)
	if accuracy >= m.cfg.Thresholds.WellDone {
		sb.WriteString("<br/>Well done!")
	}
	sb.WriteString("<br/>Hint:<br/>")
	sb.WriteString(reflection)

	var nextQuestion *string
	if !m.isCompleteLocked() {
		q := m.questions[m.currentIndex].Text
		nextQuestion = &q
	}
	resp := m.response(sb.String(), nextQuestion, m.waitingForRetry)
	if resp.Complete {
		resp.FinalSummary = m.finalSummary(ctx)
	}
	return resp, nil
}

// reflect picks the guidance text for a scored attempt: a fixed
// congratulation at the skip-reflection boundary, a generated reflection
// otherwise, and a user-safe fallback when generation fails.
func (m *StateMachine) reflect(ctx context.Context, question, userAnswer, reference,
	feedback string, accuracy int, passages []datatypes.ContextPassage) string {

	if accuracy >= m.cfg.Thresholds.SkipReflection {
		return PerfectReflection
	}
	reflection, err := m.policy.Reflect(ctx, ReflectionInput{
		Question:     question,
		UserAnswer:   userAnswer,
		Reference:    reference,
		NotesContext: m.notesContext,
		Feedback:     feedback,
	}, passages)
	if err != nil {
		slog.Error("Reflection generation failed",
			"session_id", m.sessionId, "code", CodeOf(err), "error", err)
		return msgReflectFailed
	}
	return reflection
}

// finalSummary aggregates the attempt log into a learner-facing summary.
// Generation failures degrade to a computed plain-text summary.
func (m *StateMachine) finalSummary(ctx context.Context) string {
	avg := 0.0
	if len(m.results) > 0 {
		total := 0
		for _, r := range m.results {
			total += r.Accuracy
		}
		avg = float64(total) / float64(len(m.results))
	}

	var weak []string
	seen := make(map[string]bool)
	for _, r := range m.results {
		if r.Accuracy <= m.cfg.Thresholds.Advance && !seen[r.Question] {
			weak = append(weak, r.Question)
			seen[r.Question] = true
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, m.cfg.GeneratorTimeout)
	defer cancel()
	summary, err := m.generator.Generate(genCtx,
		finalSummaryPrompt(avg, weak, m.notesContext), llm.GenerationParams{})
	if err != nil {
		observability.RecordGeneratorCall("summary", "error")
		slog.Error("Final summary generation failed",
			"session_id", m.sessionId, "error", err)
		return fmt.Sprintf("Session complete. Average accuracy: %.0f%%. Questions to review: %d.",
			avg, len(weak))
	}
	observability.RecordGeneratorCall("summary", "success")
	return strings.TrimSpace(summary)
}

// retrieve fetches passages with a bounded context. Failures and empty
// results degrade to nil; evaluation proceeds without grounding.
func (m *StateMachine) retrieve(ctx context.Context, query string, topK int) []datatypes.ContextPassage {
	retrCtx, cancel := context.WithTimeout(ctx, m.cfg.RetrieverTimeout)
	defer cancel()
	passages, err := m.retriever.Retrieve(retrCtx, query, topK)
	if err != nil {
		slog.Warn("Passage retrieval failed, continuing without context",
			"session_id", m.sessionId, "code", CodeRetrieval, "error", err)
		return nil
	}
	observability.ObserveRetrievedPassages(len(passages))
	return passages
}

// response assembles the common transition response shape. Callers must hold
// m.mu.
func (m *StateMachine) response(message string, question *string, retry bool) *datatypes.ChatResponse {
	return &datatypes.ChatResponse{
		Message:        message,
		Index:          m.currentIndex,
		Question:       question,
		Complete:       m.isCompleteLocked(),
		Retry:          retry,
		TotalQuestions: len(m.questions),
	}
}

// exactMatch compares answers case-insensitively after trimming.
func exactMatch(userAnswer, reference string) bool {
	return reference != "" &&
		strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(reference))
}
