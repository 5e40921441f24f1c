package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/facecast/server/internal/shared/errors"
)

func chatReply(content string) chatResponse {
	var resp chatResponse
	resp.Choices = append(resp.Choices, struct {
		Message chatMessage `json:"message"`
	}{Message: chatMessage{Role: "assistant", Content: content}})
	return resp
}

func TestRewriterRespond(t *testing.T) {
	t.Run("replies then rewrites for speech", func(t *testing.T) {
		var requests []chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			requests = append(requests, req)

			if len(requests) == 1 {
				json.NewEncoder(w).Encode(chatReply("It is 25°C today."))
				return
			}
			json.NewEncoder(w).Encode(chatReply("It is twenty five degrees today."))
		}))
		defer srv.Close()

		rewriter := NewRewriter(LLMConfig{BaseURL: srv.URL, APIKey: "key-1", Model: "test-model"}, nil)

		out, err := rewriter.Respond(context.Background(), "what's the weather?")
		require.NoError(t, err)
		assert.Equal(t, "It is twenty five degrees today.", out)

		require.Len(t, requests, 2)
		assert.Equal(t, "test-model", requests[0].Model)
		assert.Equal(t, replyPrompt, requests[0].Messages[0].Content)
		assert.Equal(t, "what's the weather?", requests[0].Messages[1].Content)
		assert.Equal(t, speakablePrompt, requests[1].Messages[0].Content)
		assert.Equal(t, "It is 25°C today.", requests[1].Messages[1].Content)
	})

	t.Run("empty choices is a synthesis error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(chatResponse{})
		}))
		defer srv.Close()

		rewriter := NewRewriter(LLMConfig{BaseURL: srv.URL}, nil)

		_, err := rewriter.Respond(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSynthesis))
	})

	t.Run("upstream failure status is a synthesis error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		rewriter := NewRewriter(LLMConfig{BaseURL: srv.URL}, nil)

		_, err := rewriter.MakeSpeakable(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSynthesis))
		assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
	})
}
