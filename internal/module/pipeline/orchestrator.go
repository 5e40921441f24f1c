package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/facecast/server/internal/module/avatar"
	"github.com/facecast/server/internal/module/face"
	"github.com/facecast/server/internal/module/speech"
	"github.com/facecast/server/internal/shared/events"
	"github.com/facecast/server/internal/shared/logger"
	"github.com/facecast/server/internal/shared/metrics"
)

type inputResolver interface {
	Resolve(req face.Request) (face.Asset, error)
}

type mediaNormalizer interface {
	Normalize(ctx context.Context, asset face.Asset, outPath string) (face.Asset, error)
	Transcode(ctx context.Context, rawPath, outPath string) (string, error)
}

type speechSynthesizer interface {
	Synthesize(ctx context.Context, text string, sel speech.Selector, outPath string) error
}

type lipSyncer interface {
	Invoke(ctx context.Context, faceVideoPath, audioPath, outPath string) (string, error)
}

// Orchestrator runs the generation pipeline. A semaphore bounds concurrent
// runs; the lip-sync engine monopolizes a GPU, so the bound is small.
type Orchestrator struct {
	resolver inputResolver
	media    mediaNormalizer
	speech   speechSynthesizer
	syncer   lipSyncer
	avatars  *avatar.Registry
	layout   Layout
	mode     string

	sem     chan struct{}
	bus     *events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics
}

// Config wires an orchestrator.
type Config struct {
	Resolver      inputResolver
	Media         mediaNormalizer
	Speech        speechSynthesizer
	Syncer        lipSyncer
	Avatars       *avatar.Registry
	Layout        Layout
	Mode          string
	MaxConcurrent int
	Bus           *events.Bus
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	return &Orchestrator{
		resolver: cfg.Resolver,
		media:    cfg.Media,
		speech:   cfg.Speech,
		syncer:   cfg.Syncer,
		avatars:  cfg.Avatars,
		layout:   cfg.Layout,
		mode:     cfg.Mode,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		bus:      cfg.Bus,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Generate runs the full pipeline for one request and returns the final
// browser-safe video. Stages execute strictly in order and the first failure
// aborts the run with the failing stage recorded.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	select {
	case o.sem <- struct{}{}:
		defer func() { <-o.sem }()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	runID := uuid.New()
	start := time.Now()
	log := o.log.With("run_id", runID.String(), "mode", o.mode)

	if o.metrics != nil {
		o.metrics.PipelineRunsInFlight.Inc()
		defer o.metrics.PipelineRunsInFlight.Dec()
	}

	log.Info("pipeline run started")

	result, stage, err := o.run(ctx, runID, req, log)
	duration := time.Since(start)

	if err != nil {
		log.Error("pipeline run failed", "stage", string(stage), "error", err, "duration", duration)
		if o.metrics != nil {
			o.metrics.RecordPipelineRun(o.mode, "failure", duration)
		}
		if o.bus != nil {
			o.bus.Publish(events.NewGenerationFailedEvent(runID, o.mode, string(stage), err.Error(), duration))
		}
		return Result{}, err
	}

	result.Duration = duration
	log.Info("pipeline run completed", "output", result.OutputPath, "duration", duration)
	if o.metrics != nil {
		o.metrics.RecordPipelineRun(o.mode, "success", duration)
	}
	if o.bus != nil {
		o.bus.Publish(events.NewGenerationCompletedEvent(runID, o.mode, result.OutputPath, duration))
	}

	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, runID uuid.UUID, req Request, log *logger.Logger) (Result, Stage, error) {
	var asset face.Asset
	err := o.stage(ctx, StageResolvingInput, log, func() error {
		var err error
		asset, err = o.resolver.Resolve(req.Face)
		return err
	})
	if err != nil {
		return Result{}, StageResolvingInput, err
	}

	err = o.stage(ctx, StageNormalizing, log, func() error {
		var err error
		asset, err = o.media.Normalize(ctx, asset, o.layout.FaceVideo(runID))
		return err
	})
	if err != nil {
		return Result{}, StageNormalizing, err
	}

	audioPath := o.layout.Audio(runID)
	err = o.stage(ctx, StageSynthesizing, log, func() error {
		return o.speech.Synthesize(ctx, req.Text, o.selector(req), audioPath)
	})
	if err != nil {
		return Result{}, StageSynthesizing, err
	}

	var rawPath string
	err = o.stage(ctx, StageLipSyncing, log, func() error {
		var err error
		rawPath, err = o.syncer.Invoke(ctx, asset.Path, audioPath, o.layout.RawOutput(runID))
		return err
	})
	if err != nil {
		return Result{}, StageLipSyncing, err
	}

	var finalPath string
	err = o.stage(ctx, StageTranscoding, log, func() error {
		var err error
		finalPath, err = o.media.Transcode(ctx, rawPath, o.layout.FinalOutput(runID))
		return err
	})
	if err != nil {
		return Result{}, StageTranscoding, err
	}

	return Result{RunID: runID, OutputPath: finalPath}, StageDone, nil
}

// stage runs one pipeline stage with cancellation checked first and duration
// recorded.
func (o *Orchestrator) stage(ctx context.Context, stage Stage, log *logger.Logger, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if o.metrics != nil {
		o.metrics.RecordStage(string(stage), elapsed, err)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}

	log.Debug("stage completed", "stage", string(stage), "duration", elapsed)
	return nil
}

// selector builds the voice hints for a request. The avatar's speaker only
// participates when the request named an avatar that exists; a missing avatar
// has already failed the resolve stage.
func (o *Orchestrator) selector(req Request) speech.Selector {
	sel := speech.Selector{Gender: req.Gender}
	if req.Face.AvatarID != "" && o.avatars != nil {
		if entry, err := o.avatars.Get(req.Face.AvatarID); err == nil {
			sel.AvatarSpeaker = entry.Speaker
		}
	}
	return sel
}
