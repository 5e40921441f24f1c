package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/facecast/server/internal/shared/errors"
	"github.com/facecast/server/internal/shared/metrics"
)

// LLMConfig configures the chat-completion collaborator used in
// conversational mode.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

const replyPrompt = `You are a friendly assistant whose answers will be spoken aloud by a video avatar.
Answer the user's message in one or two short sentences. Plain prose only.`

const speakablePrompt = `Rewrite the following text so it can be read aloud by a text-to-speech engine.
Remove markdown, bullet points, URLs and emoji. Spell out numbers, dates and abbreviations.
Return only the rewritten text.`

// Rewriter turns raw user text into a spoken reply via an OpenAI-compatible
// chat-completion API. Generation is two calls: compose a reply, then rewrite
// it into TTS-safe prose.
type Rewriter struct {
	cfg     LLMConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	metrics *metrics.Metrics
}

// NewRewriter creates a chat-completion client with circuit breaker
// protection.
func NewRewriter(cfg LLMConfig, m *metrics.Metrics) *Rewriter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Rewriter{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		metrics: m,
	}
}

// Respond composes a spoken reply to the user's text.
func (r *Rewriter) Respond(ctx context.Context, text string) (string, error) {
	reply, err := r.complete(ctx, replyPrompt, text)
	if err != nil {
		return "", err
	}
	return r.MakeSpeakable(ctx, reply)
}

// MakeSpeakable rewrites text into prose a TTS engine can read verbatim.
func (r *Rewriter) MakeSpeakable(ctx context.Context, text string) (string, error) {
	return r.complete(ctx, speakablePrompt, text)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (r *Rewriter) complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()

	content, err := r.breaker.Execute(func() (string, error) {
		return r.chat(ctx, system, user)
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	if r.metrics != nil {
		r.metrics.RecordCollaboratorRequest("llm", status, time.Since(start))
	}

	if err != nil {
		return "", apperrors.SynthesisError("reply generation failed", err)
	}

	return content, nil
}

func (r *Rewriter) chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat api returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat api returned no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat api returned empty content")
	}

	return content, nil
}
