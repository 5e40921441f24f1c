package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/facecast/server/internal/shared/errors"
)

func TestTTSClientSynthesize(t *testing.T) {
	t.Run("decodes first audio payload", func(t *testing.T) {
		wav := []byte("RIFF fake wav bytes")

		var got ttsRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/text-to-speech", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("api-subscription-key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			json.NewEncoder(w).Encode(ttsResponse{
				RequestID: "req-1",
				Audios: []string{
					base64.StdEncoding.EncodeToString(wav),
					base64.StdEncoding.EncodeToString([]byte("second, ignored")),
				},
			})
		}))
		defer srv.Close()

		client := NewTTSClient(TTSConfig{BaseURL: srv.URL, APIKey: "secret", Language: "en-IN"}, nil)

		audio, err := client.Synthesize(context.Background(), "hello there", "manisha")
		require.NoError(t, err)
		assert.Equal(t, wav, audio)
		assert.Equal(t, "hello there", got.Text)
		assert.Equal(t, "manisha", got.Speaker)
		assert.Equal(t, "en-IN", got.TargetLanguageCode)
	})

	t.Run("empty audio list is a synthesis error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(ttsResponse{Audios: nil})
		}))
		defer srv.Close()

		client := NewTTSClient(TTSConfig{BaseURL: srv.URL}, nil)

		_, err := client.Synthesize(context.Background(), "hello", "anushka")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSynthesis))
		assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
	})

	t.Run("malformed base64 is a synthesis error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(ttsResponse{Audios: []string{"not base64 !!!"}})
		}))
		defer srv.Close()

		client := NewTTSClient(TTSConfig{BaseURL: srv.URL}, nil)

		_, err := client.Synthesize(context.Background(), "hello", "anushka")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSynthesis))
	})

	t.Run("upstream failure status is a synthesis error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusForbidden)
		}))
		defer srv.Close()

		client := NewTTSClient(TTSConfig{BaseURL: srv.URL}, nil)

		_, err := client.Synthesize(context.Background(), "hello", "anushka")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSynthesis))
		assert.Contains(t, err.Error(), "403")
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewTTSClient(TTSConfig{BaseURL: srv.URL}, nil)

		for i := 0; i < 5; i++ {
			_, err := client.Synthesize(context.Background(), "hello", "anushka")
			require.Error(t, err)
		}

		_, err := client.Synthesize(context.Background(), "hello", "anushka")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circuit breaker is open")
	})
}
