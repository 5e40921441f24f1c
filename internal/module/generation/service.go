// Package generation exposes the video generation pipeline over HTTP.
package generation

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/facecast/server/internal/module/avatar"
	"github.com/facecast/server/internal/module/pipeline"
	apperrors "github.com/facecast/server/internal/shared/errors"
)

// Generator runs the pipeline for one request.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Service binds the transport layer to the pipeline and locates artifacts
// for serving.
type Service struct {
	generator Generator
	layout    pipeline.Layout
	inputsDir string
	avatars   *avatar.Registry
}

// NewService creates a generation service. inputsDir holds the named
// reference clips served by name.
func NewService(generator Generator, layout pipeline.Layout, inputsDir string, avatars *avatar.Registry) *Service {
	return &Service{
		generator: generator,
		layout:    layout,
		inputsDir: inputsDir,
		avatars:   avatars,
	}
}

// GenerateResult is one finished generation as reported to clients.
type GenerateResult struct {
	ID       uuid.UUID
	VideoURL string
}

// Generate runs the pipeline and returns the identifier of the produced
// video. Text is checked up front so an empty request never holds a pipeline
// slot.
func (s *Service) Generate(ctx context.Context, req pipeline.Request) (GenerateResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return GenerateResult{}, apperrors.ValidationError("text must not be empty")
	}

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{
		ID:       result.RunID,
		VideoURL: "/video/generated/" + result.RunID.String(),
	}, nil
}

// AvatarInfo is one selectable avatar as reported to clients.
type AvatarInfo struct {
	ID      string `json:"id"`
	Speaker string `json:"speaker"`
}

// Avatars lists the configured avatars in a stable order.
func (s *Service) Avatars() []AvatarInfo {
	entries := s.avatars.All()
	out := make([]AvatarInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, AvatarInfo{ID: e.ID, Speaker: e.Speaker})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GeneratedVideoPath resolves a run ID to its final video file. The ID must
// be a UUID; anything else can never name an artifact.
func (s *Service) GeneratedVideoPath(id string) (string, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return "", apperrors.ValidationError("invalid video id")
	}

	path := s.layout.FinalOutput(runID)
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NotFound("generated video " + id)
	}

	return path, nil
}

// NamedVideoPath resolves a reference clip name to a file under the inputs
// directory. Names carrying path separators or traversal are rejected.
func (s *Service) NamedVideoPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", apperrors.ValidationError("invalid video name")
	}

	path := filepath.Join(s.inputsDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NotFound("video " + name)
	}

	return path, nil
}
