package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/facecast/server/internal/shared/errors"
	"github.com/facecast/server/internal/shared/metrics"
)

// TTSConfig configures the text-to-speech collaborator.
type TTSConfig struct {
	BaseURL  string
	APIKey   string
	Language string
	Timeout  time.Duration
}

// TTSClient converts text into spoken audio through an external speech API.
// The API returns base64-encoded WAV payloads; the first one is the result.
type TTSClient struct {
	cfg     TTSConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	metrics *metrics.Metrics
}

// NewTTSClient creates a TTS client. Calls are protected by a circuit breaker
// so a dead speech backend fails fast instead of holding request slots.
func NewTTSClient(cfg TTSConfig, m *metrics.Metrics) *TTSClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "tts",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &TTSClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		metrics: m,
	}
}

type ttsRequest struct {
	Text               string `json:"text"`
	TargetLanguageCode string `json:"target_language_code"`
	Speaker            string `json:"speaker"`
}

type ttsResponse struct {
	RequestID string   `json:"request_id"`
	Audios    []string `json:"audios"`
}

// Synthesize converts text into WAV audio using the given speaker voice.
func (c *TTSClient) Synthesize(ctx context.Context, text, speaker string) ([]byte, error) {
	start := time.Now()

	audio, err := c.breaker.Execute(func() ([]byte, error) {
		return c.synthesize(ctx, text, speaker)
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordCollaboratorRequest("tts", status, time.Since(start))
	}

	if err != nil {
		return nil, apperrors.SynthesisError("speech synthesis failed", err)
	}

	return audio, nil
}

func (c *TTSClient) synthesize(ctx context.Context, text, speaker string) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{
		Text:               text,
		TargetLanguageCode: c.cfg.Language,
		Speaker:            speaker,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/text-to-speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-subscription-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call speech api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speech api returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}

	var parsed ttsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Audios) == 0 {
		return nil, fmt.Errorf("speech api returned no audio")
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech api returned empty audio")
	}

	return audio, nil
}
