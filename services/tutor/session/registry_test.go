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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/services/tutor/datatypes"
)

func countingFactory(builds *atomic.Int64) Factory {
	return func(ctx context.Context, sessionId, userId string) (*StateMachine, error) {
		builds.Add(1)
		return NewStateMachine(ctx, Deps{
			SessionId: sessionId,
			UserId:    userId,
			Questions: threeQuestions(),
			AnswerDoc: "1. Plants convert light into chemical energy.",
			Retriever: &fakeRetriever{},
			Generator: &fakeGenerator{},
			Config:    DefaultConfig(),
		}), nil
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "abc_user-1", Key("abc", "user-1"))
}

func TestRegistry_GetOrCreate(t *testing.T) {
	var builds atomic.Int64
	reg := NewRegistry(countingFactory(&builds))
	ctx := context.Background()

	m1, err := reg.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	m2, err := reg.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, int64(1), builds.Load())

	other, err := reg.GetOrCreate(ctx, "s1", "u2")
	require.NoError(t, err)
	assert.NotSame(t, m1, other, "userId is part of the session key")
	assert.Equal(t, int64(2), builds.Load())
}

func TestRegistry_GetOrCreate_FactoryError(t *testing.T) {
	boom := fmt.Errorf("weaviate unreachable")
	reg := NewRegistry(func(context.Context, string, string) (*StateMachine, error) {
		return nil, boom
	})

	_, err := reg.GetOrCreate(context.Background(), "s1", "u1")
	require.ErrorIs(t, err, boom)
	assert.Empty(t, reg.List(), "failed builds are not registered")
}

func TestRegistry_ConcurrentGetOrCreateBuildsOnce(t *testing.T) {
	var builds atomic.Int64
	reg := NewRegistry(countingFactory(&builds))

	const workers = 16
	machines := make([]*StateMachine, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := reg.GetOrCreate(context.Background(), "s1", "u1")
			assert.NoError(t, err)
			machines[i] = m
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), builds.Load())
	for _, m := range machines[1:] {
		assert.Same(t, machines[0], m)
	}
}

func TestRegistry_List(t *testing.T) {
	var builds atomic.Int64
	reg := NewRegistry(countingFactory(&builds))
	ctx := context.Background()

	_, err := reg.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	_, err = reg.GetOrCreate(ctx, "s2", "u1")
	require.NoError(t, err)

	infos := reg.List()
	require.Len(t, infos, 2)
	ids := map[string]bool{}
	for _, info := range infos {
		ids[info.SessionId] = true
		assert.Equal(t, "u1", info.UserId)
		assert.Equal(t, 3, info.Total)
		assert.False(t, info.Complete)
	}
	assert.True(t, ids["s1"] && ids["s2"])
}

func TestRegistry_ClearAllInvalidatesHandles(t *testing.T) {
	var builds atomic.Int64
	reg := NewRegistry(countingFactory(&builds))
	ctx := context.Background()

	stale, err := reg.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)

	cleared := reg.ClearAll()
	assert.Equal(t, 1, cleared)
	assert.Empty(t, reg.List())

	// A handle captured before the clear must not silently keep working.
	_, err = stale.Transition(ctx, datatypes.Signal{Kind: datatypes.SignalStart})
	require.Error(t, err)
	assert.Equal(t, CodeSessionClosed, CodeOf(err))

	// The same key afterwards yields a fresh machine.
	fresh, err := reg.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, int64(2), builds.Load())
}
