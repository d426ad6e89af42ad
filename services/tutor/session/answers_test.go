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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
)

func TestReferenceAnswerStore_ParsedAnswers(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "", fmt.Errorf("parsed answers must not trigger generation")
	}}
	store := NewReferenceAnswerStore("1. Paris.\n2. Berlin is the capital\nof Germany.", gen, DefaultConfig())

	assert.Equal(t, 2, store.ParsedCount())

	text, err := store.GetOrGenerate(context.Background(), 1, "Capital of France?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", text)

	text, err = store.GetOrGenerate(context.Background(), 2, "Capital of Germany?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Berlin is the capital of Germany.", text)

	ans, ok := store.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, OriginParsed, ans.Origin)
}

func TestReferenceAnswerStore_GeneratesExactlyOncePerKey(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "A generated canonical answer.", nil
	}}
	store := NewReferenceAnswerStore("", gen, DefaultConfig())

	passages := []datatypes.ContextPassage{{Text: "first call context", Page: 0, Title: "Notes"}}
	text, err := store.GetOrGenerate(context.Background(), 7, "Some question?", passages)
	require.NoError(t, err)
	assert.Equal(t, "A generated canonical answer.", text)
	assert.Len(t, gen.prompts, 1)

	// Different passages on the second call: still a pure cache read.
	other := []datatypes.ContextPassage{{Text: "different context", Page: 4, Title: "Other"}}
	text, err = store.GetOrGenerate(context.Background(), 7, "Some question?", other)
	require.NoError(t, err)
	assert.Equal(t, "A generated canonical answer.", text)
	assert.Len(t, gen.prompts, 1, "exactly-once generation per key")

	ans, ok := store.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, OriginGenerated, ans.Origin)
}

func TestReferenceAnswerStore_ConcurrentMissesGenerateOnce(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "shared answer", nil
	}}
	store := NewReferenceAnswerStore("", gen, DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.GetOrGenerate(context.Background(), 3, "q?", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, gen.prompts, 1)
}

func TestReferenceAnswerStore_FailureIsNotCached(t *testing.T) {
	fail := true
	gen := &fakeGenerator{respond: func(string) (string, error) {
		if fail {
			return "", fmt.Errorf("backend down")
		}
		return "recovered answer", nil
	}}
	store := NewReferenceAnswerStore("", gen, DefaultConfig())

	_, err := store.GetOrGenerate(context.Background(), 1, "q?", nil)
	require.Error(t, err)
	assert.Equal(t, CodeGeneration, CodeOf(err))
	_, ok := store.Lookup(1)
	assert.False(t, ok, "failed generations are retried next time")

	fail = false
	text, err := store.GetOrGenerate(context.Background(), 1, "q?", nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered answer", text)
}

func TestReferenceAnswerStore_GenerationGroundedInPassages(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "grounded", nil
	}}
	store := NewReferenceAnswerStore("", gen, DefaultConfig())

	passages := []datatypes.ContextPassage{
		{Text: "UNIQUE-EXCERPT-ONE", Page: 1, Title: "Notes"},
		{Text: "UNIQUE-EXCERPT-TWO", Page: 2, Title: "Notes"},
	}
	_, err := store.GetOrGenerate(context.Background(), 5, "THE-QUESTION", passages)
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "UNIQUE-EXCERPT-ONE")
	assert.Contains(t, gen.prompts[0], "UNIQUE-EXCERPT-TWO")
	assert.Contains(t, gen.prompts[0], "THE-QUESTION")
}
