// Package app wires configuration, shared infrastructure and the generation
// modules into a runnable HTTP application.
package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/facecast/server/internal/module/avatar"
	"github.com/facecast/server/internal/module/face"
	"github.com/facecast/server/internal/module/generation"
	"github.com/facecast/server/internal/module/lipsync"
	"github.com/facecast/server/internal/module/media"
	"github.com/facecast/server/internal/module/pipeline"
	"github.com/facecast/server/internal/module/speech"
	"github.com/facecast/server/internal/shared/config"
	"github.com/facecast/server/internal/shared/events"
	"github.com/facecast/server/internal/shared/logger"
	"github.com/facecast/server/internal/shared/metrics"
	"github.com/facecast/server/internal/shared/middleware"
	"github.com/facecast/server/internal/shared/procrun"
	"github.com/facecast/server/internal/shared/response"
)

// App represents the application.
type App struct {
	config    *config.Config
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	eventBus *events.Bus

	orchestrator      *pipeline.Orchestrator
	generationHandler *generation.Handler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})

	// zap logger for the subsystems that run on zap
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New("facecast"),
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter()

	return app, nil
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop flushes application components. The process-level HTTP shutdown is
// the caller's job.
func (a *App) Stop() {
	_ = a.zapLogger.Sync()
}

// initStorage creates the scratch and serving directories up front so the
// first request never races directory creation.
func (a *App) initStorage() error {
	dirs := []string{
		a.config.Storage.UploadsDir,
		a.config.Storage.TempDir,
		a.config.Storage.OutputsDir,
		a.config.Storage.InputsDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// initModules builds the pipeline collaborators and the generation module.
func (a *App) initModules() error {
	a.eventBus = events.NewBus(a.zapLogger)
	a.registerEventHandlers()

	entries := make([]avatar.Entry, 0, len(a.config.Avatars))
	for _, av := range a.config.Avatars {
		entries = append(entries, avatar.Entry{
			ID:        av.ID,
			ImagePath: av.Image,
			Speaker:   av.Speaker,
		})
	}
	registry := avatar.NewRegistry(a.config.Storage.InputsDir, entries)

	resolver := face.NewResolver(a.config.Storage.UploadsDir, registry, a.config.Storage.ReferenceClip)

	runner := procrun.ExecCommandRunner{}

	ffmpeg := media.NewFFmpeg(runner, a.config.Media.FFmpegPath, media.NormalizeProfile{
		Width:     a.config.Media.Width,
		Height:    a.config.Media.Height,
		FrameRate: a.config.Media.FrameRate,
		Duration:  a.config.Media.DefaultDuration,
	})

	syncer := lipsync.NewInvoker(runner, lipsync.Config{
		PythonPath:     a.config.LipSync.PythonPath,
		ScriptPath:     a.config.LipSync.ScriptPath,
		CheckpointPath: a.config.LipSync.CheckpointPath,
	})

	tts := speech.NewTTSClient(speech.TTSConfig{
		BaseURL:  a.config.TTS.BaseURL,
		APIKey:   a.config.TTS.APIKey,
		Language: a.config.TTS.Language,
		Timeout:  a.config.TTS.Timeout,
	}, a.metrics)

	var policy speech.TextPolicy = speech.VerbatimPolicy{}
	if a.config.Server.Mode == config.ModeConversational {
		rewriter := speech.NewRewriter(speech.LLMConfig{
			BaseURL: a.config.LLM.BaseURL,
			APIKey:  a.config.LLM.APIKey,
			Model:   a.config.LLM.Model,
			Timeout: a.config.LLM.Timeout,
		}, a.metrics)
		policy = speech.NewConversationalPolicy(rewriter)
	}

	synthesizer := speech.NewSynthesizer(tts, policy, speech.VoiceTable{
		Default: a.config.TTS.DefaultVoice,
		Male:    a.config.TTS.MaleVoice,
		Female:  a.config.TTS.FemaleVoice,
	})

	layout := pipeline.Layout{
		TempDir:    a.config.Storage.TempDir,
		OutputsDir: a.config.Storage.OutputsDir,
	}

	a.orchestrator = pipeline.NewOrchestrator(pipeline.Config{
		Resolver:      resolver,
		Media:         ffmpeg,
		Speech:        synthesizer,
		Syncer:        syncer,
		Avatars:       registry,
		Layout:        layout,
		Mode:          a.config.Server.Mode,
		MaxConcurrent: a.config.Pipeline.MaxConcurrent,
		Bus:           a.eventBus,
		Logger:        a.logger,
		Metrics:       a.metrics,
	})

	service := generation.NewService(a.orchestrator, layout, a.config.Storage.InputsDir, registry)
	a.generationHandler = generation.NewHandler(service, a.config.Server.IndexFile, a.logger)

	return nil
}

// registerEventHandlers subscribes the audit logger to generation events.
func (a *App) registerEventHandlers() {
	log := a.logger.WithGroup("generation")

	a.eventBus.Register(events.NewHandlerFunc(
		[]string{events.GenerationCompletedType, events.GenerationFailedType},
		func(e events.Event) error {
			switch ev := e.(type) {
			case *events.GenerationCompletedEvent:
				log.Info("generation completed",
					"run_id", ev.RunID.String(),
					"mode", ev.Mode,
					"output", ev.FinalVideoPath,
					"duration", ev.Duration,
				)
			case *events.GenerationFailedEvent:
				log.Warn("generation failed",
					"run_id", ev.RunID.String(),
					"mode", ev.Mode,
					"stage", ev.Stage,
					"reason", ev.Reason,
					"duration", ev.Duration,
				)
			}
			return nil
		},
	))
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.generationHandler.RegisterRoutes(r)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "")
	})

	return r
}
