// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// Tests for the chat handler

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/services/llm"
	"github.com/mentora-ai/mentora/services/tutor/datatypes"
	"github.com/mentora-ai/mentora/services/tutor/material"
	"github.com/mentora-ai/mentora/services/tutor/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string, llm.GenerationParams) (string, error) {
	return "Feedback: close enough.\nAccuracy: 90%", nil
}

type stubRetriever struct{}

func (stubRetriever) Retrieve(context.Context, string, int) ([]datatypes.ContextPassage, error) {
	return []datatypes.ContextPassage{
		{Text: "Plants convert light into chemical energy.", Page: 0, Title: "Biology Notes"},
	}, nil
}

func testRegistry() *session.Registry {
	return session.NewRegistry(func(ctx context.Context, sessionId, userId string) (*session.StateMachine, error) {
		return session.NewStateMachine(ctx, session.Deps{
			SessionId: sessionId,
			UserId:    userId,
			Questions: []datatypes.Question{
				{Ordinal: 0, Number: 1, Text: "What is photosynthesis?"},
				{Ordinal: 1, Number: 2, Text: "What does the nucleus store?"},
			},
			AnswerDoc: "1. Plants convert light into chemical energy.",
			Retriever: stubRetriever{},
			Generator: stubGenerator{},
			Config:    session.DefaultConfig(),
		}), nil
	})
}

func chatRouter(registry *session.Registry) *gin.Engine {
	router := gin.New()
	router.POST("/v1/chat/:sessionId", Chat(registry))
	return router
}

func postChat(t *testing.T, router *gin.Engine, sessionId string, body datatypes.ChatRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/chat/"+sessionId, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestChat_StartReturnsFirstQuestion(t *testing.T) {
	router := chatRouter(testRegistry())

	w := postChat(t, router, "s1", datatypes.ChatRequest{
		UserId:     "u1",
		UserAnswer: datatypes.TokenStartSession,
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		datatypes.ChatResponse
		UserId string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserId)
	assert.Equal(t, 0, resp.Index)
	require.NotNil(t, resp.Question)
	assert.Equal(t, "What is photosynthesis?", *resp.Question)
	assert.Equal(t, 2, resp.TotalQuestions)
}

func TestChat_AssignsUserIdWhenOmitted(t *testing.T) {
	router := chatRouter(testRegistry())

	w := postChat(t, router, "s1", datatypes.ChatRequest{
		UserAnswer: datatypes.TokenStartSession,
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["user_id"])
}

func TestChat_AnswerIsScored(t *testing.T) {
	router := chatRouter(testRegistry())

	postChat(t, router, "s1", datatypes.ChatRequest{
		UserId: "u1", UserAnswer: datatypes.TokenStartSession,
	})
	w := postChat(t, router, "s1", datatypes.ChatRequest{
		UserId:        "u1",
		UserAnswer:    "Plants use light to make energy",
		QuestionIndex: 0,
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "Accuracy: 90%")
	assert.Equal(t, 1, resp.Index, "90 advances past the first question")
}

func TestChat_StaleSubmissionConflicts(t *testing.T) {
	router := chatRouter(testRegistry())

	postChat(t, router, "s1", datatypes.ChatRequest{
		UserId: "u1", UserAnswer: datatypes.TokenStartSession,
	})
	postChat(t, router, "s1", datatypes.ChatRequest{
		UserId: "u1", UserAnswer: "answer one", QuestionIndex: 0,
	})

	// Replaying against the already-advanced-past question must not score.
	w := postChat(t, router, "s1", datatypes.ChatRequest{
		UserId: "u1", UserAnswer: "answer one again", QuestionIndex: 0,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChat_MissingMaterialsIs404(t *testing.T) {
	registry := session.NewRegistry(func(context.Context, string, string) (*session.StateMachine, error) {
		return nil, material.ErrNotFound
	})
	router := chatRouter(registry)

	w := postChat(t, router, "nope", datatypes.ChatRequest{
		UserId: "u1", UserAnswer: datatypes.TokenStartSession,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat_InvalidBodyIs400(t *testing.T) {
	router := chatRouter(testRegistry())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/chat/s1", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
