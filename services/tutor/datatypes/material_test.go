// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuestions(t *testing.T) {
	t.Run("numbered lines become ordered questions", func(t *testing.T) {
		text := "1. What is photosynthesis?\n2. Name the cell organelles.\n3) Define osmosis."
		questions := ParseQuestions(text)

		assert.Len(t, questions, 3)
		assert.Equal(t, 0, questions[0].Ordinal)
		assert.Equal(t, 1, questions[0].Number)
		assert.Equal(t, "What is photosynthesis?", questions[0].Text)
		assert.Equal(t, 2, questions[2].Ordinal)
		assert.Equal(t, 3, questions[2].Number)
	})

	t.Run("unnumbered lines are dropped, not fatal", func(t *testing.T) {
		text := "Study Questions\n\n1. First question\nsome stray text\n4. Fourth question"
		questions := ParseQuestions(text)

		assert.Len(t, questions, 2)
		// Document numbering wins over position.
		assert.Equal(t, 1, questions[1].Ordinal)
		assert.Equal(t, 4, questions[1].Number)
	})

	t.Run("empty document yields no questions", func(t *testing.T) {
		assert.Empty(t, ParseQuestions(""))
		assert.Empty(t, ParseQuestions("\n\n  \n"))
	})
}

func TestParseNumberedAnswers(t *testing.T) {
	t.Run("continuation lines merge with a single space", func(t *testing.T) {
		text := "1. Photosynthesis converts light\ninto chemical energy.\n2. The nucleus stores DNA."
		answers := ParseNumberedAnswers(text)

		assert.Len(t, answers, 2)
		assert.Equal(t, "Photosynthesis converts light into chemical energy.", answers[1])
		assert.Equal(t, "The nucleus stores DNA.", answers[2])
	})

	t.Run("preamble before the first entry is ignored", func(t *testing.T) {
		text := "Answer Key\nBiology 101\n1. Mitochondria."
		answers := ParseNumberedAnswers(text)

		assert.Len(t, answers, 1)
		assert.Equal(t, "Mitochondria.", answers[1])
	})

	t.Run("last entry is flushed", func(t *testing.T) {
		text := "7. Final answer\nspanning two lines"
		answers := ParseNumberedAnswers(text)
		assert.Equal(t, "Final answer spanning two lines", answers[7])
	})

	t.Run("missing document yields an empty map", func(t *testing.T) {
		assert.Empty(t, ParseNumberedAnswers(""))
	})
}
