// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the wire types and study-material conventions
// shared by the tutor handlers and the session engine.
package datatypes

import "strings"

// Control tokens accepted on the chat wire. Clients send these in the
// user_answer field; anything else is a literal answer.
const (
	TokenStartSession = "[START_SESSION]"
	TokenEndChat      = "[END_CHAT]"
	TokenNextQuestion = "[NEXT_QUESTION]"
	TokenGetHintOnly  = "[GET_HINT_ONLY]"
)

// SignalKind enumerates the decoded chat signals.
type SignalKind int

const (
	SignalStart SignalKind = iota
	SignalEnd
	SignalSkip
	SignalHint
	SignalAnswer
)

// String returns the signal name for logs and metrics labels.
func (k SignalKind) String() string {
	switch k {
	case SignalStart:
		return "start"
	case SignalEnd:
		return "end"
	case SignalSkip:
		return "skip"
	case SignalHint:
		return "hint"
	case SignalAnswer:
		return "answer"
	}
	return "unknown"
}

// Signal is the decoded form of one chat turn. The sentinel tokens are
// resolved here at the boundary so the session engine never pattern-matches
// raw strings.
type Signal struct {
	Kind   SignalKind
	Answer string

	// QuestionIndex is the question the client believes it is answering.
	// -1 means "whatever is current".
	QuestionIndex int
}

// DecodeSignal translates a raw user_answer field into a Signal.
// An empty answer at index 0 is the legacy way clients ask for the first
// question, so it decodes to SignalStart.
func DecodeSignal(raw string, questionIndex int) Signal {
	switch strings.TrimSpace(raw) {
	case TokenStartSession:
		return Signal{Kind: SignalStart, QuestionIndex: questionIndex}
	case TokenEndChat:
		return Signal{Kind: SignalEnd, QuestionIndex: questionIndex}
	case TokenNextQuestion:
		return Signal{Kind: SignalSkip, QuestionIndex: questionIndex}
	case TokenGetHintOnly:
		return Signal{Kind: SignalHint, QuestionIndex: questionIndex}
	case "":
		if questionIndex <= 0 {
			return Signal{Kind: SignalStart, QuestionIndex: questionIndex}
		}
	}
	return Signal{Kind: SignalAnswer, Answer: raw, QuestionIndex: questionIndex}
}

// ChatRequest is the body of POST /v1/chat/:sessionId.
type ChatRequest struct {
	UserId        string `json:"user_id"`
	UserAnswer    string `json:"user_answer"`
	QuestionIndex int    `json:"question_index"`
}

// ChatResponse is the per-transition response shape. Question is nil when no
// question is active (session complete, or a hint/end turn).
type ChatResponse struct {
	Message        string  `json:"message"`
	Index          int     `json:"index"`
	Question       *string `json:"question"`
	Complete       bool    `json:"complete"`
	Retry          bool    `json:"retry"`
	TotalQuestions int     `json:"total_questions"`
	FinalSummary   string  `json:"final_summary,omitempty"`
}
