package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facecast/server/internal/shared/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	index := filepath.Join(root, "index.html")
	require.NoError(t, os.WriteFile(index, []byte("<html></html>"), 0o644))

	return &config.Config{
		Server: config.ServerConfig{
			Address:   ":0",
			Mode:      config.ModeInvitation,
			IndexFile: index,
		},
		Log: config.LogConfig{Level: "error", Format: "json"},
		Storage: config.StorageConfig{
			UploadsDir: filepath.Join(root, "uploads"),
			TempDir:    filepath.Join(root, "temp"),
			OutputsDir: filepath.Join(root, "outputs"),
			InputsDir:  filepath.Join(root, "inputs"),
		},
		Media: config.MediaConfig{
			FFmpegPath:      "ffmpeg",
			Width:           1280,
			Height:          720,
			FrameRate:       25,
			DefaultDuration: 5 * time.Second,
		},
		LipSync: config.LipSyncConfig{
			PythonPath:     "python3",
			ScriptPath:     "inference_onnxModel.py",
			CheckpointPath: "checkpoints/wav2lip_gan.onnx",
		},
		TTS: config.TTSConfig{
			BaseURL:      "http://localhost:1",
			APIKey:       "test",
			Language:     "en-IN",
			DefaultVoice: "anushka",
			MaleVoice:    "abhilash",
			FemaleVoice:  "manisha",
		},
		Pipeline: config.PipelineConfig{MaxConcurrent: 1},
		Avatars: []config.AvatarConfig{
			{ID: "bengal", Image: "bengal.png", Speaker: "manisha"},
		},
	}
}

func TestAppNew(t *testing.T) {
	cfg := testConfig(t)

	application, err := New(cfg)
	require.NoError(t, err)
	defer application.Stop()

	t.Run("creates scratch directories", func(t *testing.T) {
		for _, dir := range []string{
			cfg.Storage.UploadsDir,
			cfg.Storage.TempDir,
			cfg.Storage.OutputsDir,
			cfg.Storage.InputsDir,
		} {
			info, err := os.Stat(dir)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	})

	t.Run("health endpoint responds", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ok")
	})

	t.Run("metrics endpoint responds", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("index page is served", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "<html></html>", rec.Body.String())
	})

	t.Run("unknown generated video is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video/generated/0b5c6b44-3a89-4a4c-9f3f-6f9f2f6c1a11", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("avatars endpoint lists configured avatars", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/avatars", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "bengal")
		assert.Contains(t, rec.Body.String(), "manisha")
	})

	t.Run("unknown route gets a json 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not found")
	})
}
