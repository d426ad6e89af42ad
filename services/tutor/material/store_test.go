// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package material

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
)

func sampleBundle(sessionId string) Bundle {
	return Bundle{
		SessionId:  sessionId,
		NotesTitle: "notes.pdf",
		Questions: []datatypes.Question{
			{Ordinal: 0, Number: 1, Text: "What is photosynthesis?"},
		},
		AnswerDoc: "1. Plants convert light into chemical energy.",
	}
}

func TestStore_PutGet(t *testing.T) {
	store := NewStore()

	_, err := store.Get("s1")
	require.ErrorIs(t, err, ErrNotFound)

	store.Put(sampleBundle("s1"))
	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", got.NotesTitle)
	assert.Len(t, got.Questions, 1)
}

func TestStore_PutReplaces(t *testing.T) {
	store := NewStore()
	store.Put(sampleBundle("s1"))

	replacement := sampleBundle("s1")
	replacement.NotesTitle = "revised.pdf"
	store.Put(replacement)

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "revised.pdf", got.NotesTitle)
}

func TestStore_DeleteAndClear(t *testing.T) {
	store := NewStore()
	store.Put(sampleBundle("s1"))
	store.Put(sampleBundle("s2"))

	store.Delete("s1")
	_, err := store.Get("s1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, store.Clear())
	assert.Empty(t, store.Sessions())
}

func TestStore_Sessions(t *testing.T) {
	store := NewStore()
	store.Put(sampleBundle("s1"))
	store.Put(sampleBundle("s2"))

	ids := store.Sessions()
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Put(sampleBundle("shared"))
			_, _ = store.Get("shared")
			_ = store.Sessions()
		}()
	}
	wg.Wait()

	_, err := store.Get("shared")
	assert.NoError(t, err)
}
