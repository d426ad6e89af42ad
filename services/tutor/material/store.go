// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package material

import (
	"errors"
	"sync"
	"time"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
)

// ErrNotFound means no materials have been uploaded for the session.
var ErrNotFound = errors.New("no materials uploaded for session")

// Bundle is everything one upload produced for a session.
type Bundle struct {
	SessionId     string               `json:"session_id"`
	NotesTitle    string               `json:"notes_title"`
	NotesPages    int                  `json:"notes_pages"`
	Questions     []datatypes.Question `json:"questions"`
	AnswerDoc     string               `json:"-"`
	ChunksIndexed int                  `json:"chunks_indexed"`
	UploadedAt    time.Time            `json:"uploaded_at"`
}

// Store keeps the uploaded bundles in memory, keyed by sessionId. Uploads
// replace: a second upload for the same session overwrites the first.
type Store struct {
	mu      sync.RWMutex
	bundles map[string]Bundle
}

func NewStore() *Store {
	return &Store{bundles: make(map[string]Bundle)}
}

func (s *Store) Put(b Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[b.SessionId] = b
}

func (s *Store) Get(sessionId string) (Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[sessionId]
	if !ok {
		return Bundle{}, ErrNotFound
	}
	return b, nil
}

func (s *Store) Delete(sessionId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bundles, sessionId)
}

// Clear drops every bundle and reports how many were held.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.bundles)
	s.bundles = make(map[string]Bundle)
	return n
}

// Sessions lists the session ids with uploaded materials.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.bundles))
	for id := range s.bundles {
		ids = append(ids, id)
	}
	return ids
}
