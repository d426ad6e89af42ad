// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"fmt"
	"strings"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
)

// joinPassages concatenates passage texts for prompt embedding, best-ranked
// first.
func joinPassages(passages []datatypes.ContextPassage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

func evaluationPrompt(question, userAnswer, reference, notesContext, similarContext string) string {
	return fmt.Sprintf(`You are grading a learner's answer against the reference answer and the study material below.

Question: %s

Learner answer: %s

Reference answer: %s

Course notes summary:
%s

Relevant excerpts:
%s

Grade how accurately the learner answer matches the reference answer, using the study material to resolve wording differences. Respond with exactly two lines:
Feedback: <one or two sentences on what was right and what was missing>
Accuracy: <integer 0-100>%%`,
		question, userAnswer, reference, notesContext, similarContext)
}

func reflectionPrompt(question, userAnswer, reference, notesContext, similarContext, feedback string) string {
	return fmt.Sprintf(`A learner answered a study question and received feedback. Write a short, encouraging reflection that helps them improve on the next attempt. Point at the concept they missed without giving the reference answer away verbatim.

Question: %s
Learner answer: %s
Reference answer: %s
Feedback: %s

Course notes summary:
%s

Relevant excerpts:
%s

Reflection:`,
		question, userAnswer, reference, feedback, notesContext, similarContext)
}

func hintPrompt(question, similarContext string) string {
	return fmt.Sprintf(`Give a short hint for the study question below. Use only the excerpts as grounding. Do not reveal the full answer.

Question: %s

Excerpts:
%s

Hint:`,
		question, similarContext)
}

func referenceAnswerPrompt(question, similarContext string) string {
	return fmt.Sprintf(`Using ONLY the study material excerpts below, write the canonical answer to the question. If the excerpts do not cover the question, answer as well as the excerpts allow. Keep it to a few sentences.

%s

Question: %s
Answer:`,
		similarContext, question)
}

func finalSummaryPrompt(avgAccuracy float64, weakQuestions []string, notesContext string) string {
	weak := "none"
	if len(weakQuestions) > 0 {
		weak = "- " + strings.Join(weakQuestions, "\n- ")
	}
	return fmt.Sprintf(`A tutoring session just finished. Write a short performance summary for the learner: overall impression, what to review, and one piece of encouragement.

Average accuracy: %.1f%%
Questions that need review:
%s

Course notes summary:
%s

Summary:`,
		avgAccuracy, weak, notesContext)
}
