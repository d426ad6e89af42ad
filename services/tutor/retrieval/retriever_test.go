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
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

func getResponse(objects []interface{}) *models.GraphQLResponse {
	return &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				StudyChunkClass: objects,
			},
		},
	}
}

func TestParsePassages(t *testing.T) {
	t.Run("well formed objects decode in order", func(t *testing.T) {
		resp := getResponse([]interface{}{
			map[string]interface{}{"text": "Plants convert light.", "page": float64(2), "title": "Biology Notes"},
			map[string]interface{}{"text": "The nucleus stores DNA.", "page": float64(5), "title": "Biology Notes"},
		})

		passages, err := parsePassages(resp)
		require.NoError(t, err)
		require.Len(t, passages, 2)
		assert.Equal(t, "Plants convert light.", passages[0].Text)
		assert.Equal(t, 2, passages[0].Page)
		assert.Equal(t, "Biology Notes", passages[0].Title)
		assert.Equal(t, 5, passages[1].Page)
	})

	t.Run("empty response yields no passages", func(t *testing.T) {
		passages, err := parsePassages(&models.GraphQLResponse{Data: map[string]models.JSONObject{}})
		require.NoError(t, err)
		assert.Empty(t, passages)
	})

	t.Run("missing class key yields no passages", func(t *testing.T) {
		resp := &models.GraphQLResponse{
			Data: map[string]models.JSONObject{
				"Get": map[string]interface{}{},
			},
		}
		passages, err := parsePassages(resp)
		require.NoError(t, err)
		assert.Empty(t, passages)
	})

	t.Run("malformed objects are skipped", func(t *testing.T) {
		resp := getResponse([]interface{}{
			"not an object",
			map[string]interface{}{"text": "", "page": float64(0), "title": "empty text dropped"},
			map[string]interface{}{"text": "kept", "page": float64(1), "title": "Notes"},
		})

		passages, err := parsePassages(resp)
		require.NoError(t, err)
		require.Len(t, passages, 1)
		assert.Equal(t, "kept", passages[0].Text)
	})

	t.Run("missing optional fields default", func(t *testing.T) {
		resp := getResponse([]interface{}{
			map[string]interface{}{"text": "bare chunk"},
		})

		passages, err := parsePassages(resp)
		require.NoError(t, err)
		require.Len(t, passages, 1)
		assert.Equal(t, 0, passages[0].Page)
		assert.Equal(t, "", passages[0].Title)
	})
}
