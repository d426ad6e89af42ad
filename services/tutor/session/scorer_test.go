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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAccuracy(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       int
		wantOK     bool
	}{
		{"labeled integer", "Feedback: good.\nAccuracy: 85", 85, true},
		{"labeled percent", "Accuracy: 85%", 85, true},
		{"lowercase label", "accuracy: 42 %", 42, true},
		{"decimal rounds up", "Accuracy: 85.5%", 86, true},
		{"decimal rounds down", "Accuracy: 85.4%", 85, true},
		{"over 100 clamps", "Accuracy: 150%", 100, true},
		{"bare percent fallback", "Your score is 73% this time.", 73, true},
		{"bare number without percent is not a score", "You named 2 concepts.", 0, false},
		{"no numeric token", "I cannot grade this.", 0, false},
		{"empty completion", "", 0, false},
		{"negative sign is not consumed", "Accuracy: -20%", 20, true},
		{"first label wins on multiple matches", "Accuracy: 60%\nAccuracy: 90%", 60, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractAccuracy(tt.completion)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestExtractFeedback(t *testing.T) {
	t.Run("feedback line extracted", func(t *testing.T) {
		got := extractFeedback("Some preamble\nFeedback: solid answer.\nAccuracy: 90%")
		assert.Equal(t, "solid answer.", got)
	})

	t.Run("case-insensitive prefix", func(t *testing.T) {
		got := extractFeedback("FEEDBACK:   needs work.")
		assert.Equal(t, "needs work.", got)
	})

	t.Run("whole completion on missing marker", func(t *testing.T) {
		completion := "The answer covers most of the concept.\nScore unclear."
		assert.Equal(t, completion, extractFeedback(completion))
	})
}

func TestClampAccuracy(t *testing.T) {
	assert.Equal(t, 0, clampAccuracy(-5))
	assert.Equal(t, 0, clampAccuracy(0))
	assert.Equal(t, 100, clampAccuracy(100))
	assert.Equal(t, 100, clampAccuracy(250))
	assert.Equal(t, 67, clampAccuracy(67))
}

func TestAccuracyScorer_Score(t *testing.T) {
	t.Run("well-formed completion", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(string) (string, error) {
			return "Feedback: nearly complete.\nAccuracy: 78%", nil
		}}
		scorer := NewAccuracyScorer(gen, DefaultConfig())

		feedback, accuracy, err := scorer.Score(context.Background(),
			"q", "a", "ref", "notes", nil)
		require.NoError(t, err)
		assert.Equal(t, "nearly complete.", feedback)
		assert.Equal(t, 78, accuracy)
	})

	t.Run("malformed completion never errors", func(t *testing.T) {
		completion := "### unable to comply ###"
		gen := &fakeGenerator{respond: func(string) (string, error) {
			return completion, nil
		}}
		scorer := NewAccuracyScorer(gen, DefaultConfig())

		feedback, accuracy, err := scorer.Score(context.Background(),
			"q", "a", "ref", "notes", nil)
		require.NoError(t, err)
		assert.Equal(t, completion, feedback)
		assert.Equal(t, 0, accuracy)
	})

	t.Run("generator failure is a GenerationError", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(string) (string, error) {
			return "", fmt.Errorf("connection refused")
		}}
		scorer := NewAccuracyScorer(gen, DefaultConfig())

		_, _, err := scorer.Score(context.Background(), "q", "a", "ref", "notes", nil)
		require.Error(t, err)
		assert.Equal(t, CodeGeneration, CodeOf(err))
	})

	t.Run("prompt embeds all five fields", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(string) (string, error) {
			return "Accuracy: 50%", nil
		}}
		scorer := NewAccuracyScorer(gen, DefaultConfig())

		_, _, err := scorer.Score(context.Background(),
			"THE-QUESTION", "THE-ANSWER", "THE-REFERENCE", "THE-NOTES", nil)
		require.NoError(t, err)
		require.Len(t, gen.prompts, 1)
		for _, field := range []string{"THE-QUESTION", "THE-ANSWER", "THE-REFERENCE", "THE-NOTES"} {
			assert.Contains(t, gen.prompts[0], field)
		}
	})
}
