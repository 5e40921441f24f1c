// Package pipeline orchestrates one generation run: resolve the face input,
// normalize it into video, synthesize speech, lip-sync, and transcode the
// result for browser playback. Stages run strictly in order and the first
// failure aborts the run.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/facecast/server/internal/module/face"
)

// Stage identifies where a run currently is, or where it stopped.
type Stage string

const (
	StageResolvingInput Stage = "resolving_input"
	StageNormalizing    Stage = "normalizing"
	StageSynthesizing   Stage = "synthesizing"
	StageLipSyncing     Stage = "lip_syncing"
	StageTranscoding    Stage = "transcoding"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// Request is one generation request as the orchestrator sees it.
type Request struct {
	Text   string
	Gender string
	Face   face.Request
}

// Result is a completed run.
type Result struct {
	RunID      uuid.UUID
	OutputPath string
	Duration   time.Duration
}
