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
	"log/slog"
	"sync"

	"github.com/mentora-ai/mentora/services/tutor/observability"
)

// Factory builds the state machine for a first-seen (session, user) pair.
// It typically loads the uploaded study material and wires the retriever.
type Factory func(ctx context.Context, sessionId, userId string) (*StateMachine, error)

// SessionInfo is a registry listing entry.
type SessionInfo struct {
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	Index     int    `json:"index"`
	Total     int    `json:"total_questions"`
	Complete  bool   `json:"complete"`
	Attempts  int    `json:"attempts"`
}

// Registry is the process-wide map from (session, user) keys to live state
// machines. Machines are created on first interaction and only removed by
// ClearAll, which also invalidates outstanding handles.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*StateMachine
	factory  Factory
}

// NewRegistry wires the machine factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		sessions: make(map[string]*StateMachine),
		factory:  factory,
	}
}

// Key is the deterministic composite of the two identifiers.
func Key(sessionId, userId string) string {
	return sessionId + "_" + userId
}

// GetOrCreate returns the live machine for the pair, building one on first
// sight. Concurrent first interactions for the same key create exactly one
// machine.
func (r *Registry) GetOrCreate(ctx context.Context, sessionId, userId string) (*StateMachine, error) {
	key := Key(sessionId, userId)

	r.mu.RLock()
	machine, ok := r.sessions[key]
	r.mu.RUnlock()
	if ok {
		return machine, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if machine, ok := r.sessions[key]; ok {
		return machine, nil
	}

	machine, err := r.factory(ctx, sessionId, userId)
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", key, err)
	}
	r.sessions[key] = machine
	observability.SetActiveSessions(len(r.sessions))
	slog.Info("Registered new session", "session_id", sessionId, "user_id", userId)
	return machine, nil
}

// List snapshots the live sessions.
func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, m := range r.sessions {
		out = append(out, SessionInfo{
			SessionId: m.SessionId(),
			UserId:    m.UserId(),
			Index:     m.CurrentIndex(),
			Total:     m.TotalQuestions(),
			Complete:  m.IsComplete(),
			Attempts:  len(m.Results()),
		})
	}
	return out
}

// ClearAll drops every entry and closes the machines so stale handles fail
// with CodeSessionClosed on their next transition. Returns the number of
// sessions cleared.
func (r *Registry) ClearAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.sessions)
	for key, m := range r.sessions {
		m.Close()
		delete(r.sessions, key)
	}
	observability.SetActiveSessions(0)
	slog.Info("Cleared all sessions", "count", n)
	return n
}
