package events

import (
	"time"

	"github.com/google/uuid"
)

// Generation event type constants.
const (
	GenerationCompletedType = "GenerationCompleted"
	GenerationFailedType    = "GenerationFailed"
)

// GenerationCompletedEvent is emitted when a pipeline run produces a final video.
type GenerationCompletedEvent struct {
	BaseEvent

	// RunID is the pipeline run identifier.
	RunID uuid.UUID `json:"run_id"`

	// Mode is the text policy the run was executed under.
	Mode string `json:"mode"`

	// FinalVideoPath is the browser-safe output artifact.
	FinalVideoPath string `json:"final_video_path"`

	// Duration is the end-to-end pipeline duration.
	Duration time.Duration `json:"duration"`
}

// NewGenerationCompletedEvent creates a new GenerationCompletedEvent.
func NewGenerationCompletedEvent(runID uuid.UUID, mode, finalVideoPath string, duration time.Duration) *GenerationCompletedEvent {
	return &GenerationCompletedEvent{
		BaseEvent:      NewBaseEvent(GenerationCompletedType, runID, "Generation"),
		RunID:          runID,
		Mode:           mode,
		FinalVideoPath: finalVideoPath,
		Duration:       duration,
	}
}

// GenerationFailedEvent is emitted when a pipeline run aborts.
type GenerationFailedEvent struct {
	BaseEvent

	// RunID is the pipeline run identifier.
	RunID uuid.UUID `json:"run_id"`

	// Mode is the text policy the run was executed under.
	Mode string `json:"mode"`

	// Stage is the pipeline stage that failed.
	Stage string `json:"stage"`

	// Reason is the failure message.
	Reason string `json:"reason"`

	// Duration is how long the run lasted before aborting.
	Duration time.Duration `json:"duration"`
}

// NewGenerationFailedEvent creates a new GenerationFailedEvent.
func NewGenerationFailedEvent(runID uuid.UUID, mode, stage, reason string, duration time.Duration) *GenerationFailedEvent {
	return &GenerationFailedEvent{
		BaseEvent: NewBaseEvent(GenerationFailedType, runID, "Generation"),
		RunID:     runID,
		Mode:      mode,
		Stage:     stage,
		Reason:    reason,
		Duration:  duration,
	}
}
