// Package lipsync drives the external lip-sync inference engine. The engine
// is an independently versioned artifact with its own dependency closure, so
// it runs out of process; the serving process only sees its exit code.
package lipsync

import (
	"context"

	apperrors "github.com/facecast/server/internal/shared/errors"
	"github.com/facecast/server/internal/shared/procrun"
)

// Config locates the engine: the interpreter, the inference script, and the
// model checkpoint it loads.
type Config struct {
	PythonPath     string
	ScriptPath     string
	CheckpointPath string
}

// Invoker runs the inference engine for one (face video, audio) pair.
type Invoker struct {
	runner procrun.CommandRunner
	cfg    Config
}

// NewInvoker creates an invoker.
func NewInvoker(runner procrun.CommandRunner, cfg Config) *Invoker {
	return &Invoker{
		runner: runner,
		cfg:    cfg,
	}
}

// Invoke synthesizes a lip-synced video at outPath from the face video and
// audio file. A non-zero exit aborts the request; there is no retry and no
// partial result.
func (i *Invoker) Invoke(ctx context.Context, faceVideoPath, audioPath, outPath string) (string, error) {
	args := []string{
		i.cfg.ScriptPath,
		"--checkpoint_path", i.cfg.CheckpointPath,
		"--face", faceVideoPath,
		"--audio", audioPath,
		"--outfile", outPath,
	}

	if err := i.runner.Run(ctx, i.cfg.PythonPath, args...); err != nil {
		return "", apperrors.InferenceError("lip-sync engine", err)
	}

	return outPath, nil
}
