// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID(t *testing.T) {
	a := chunkID("s1", "notes.pdf", 2, 0)
	b := chunkID("s1", "notes.pdf", 2, 0)
	assert.Equal(t, a, b, "same chunk always maps to the same id")

	assert.NotEqual(t, a, chunkID("s1", "notes.pdf", 2, 1))
	assert.NotEqual(t, a, chunkID("s1", "notes.pdf", 3, 0))
	assert.NotEqual(t, a, chunkID("s2", "notes.pdf", 2, 0))
	assert.NotEqual(t, a, chunkID("s1", "other.pdf", 2, 0))
}
