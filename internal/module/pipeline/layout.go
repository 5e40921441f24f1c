package pipeline

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Layout derives every artifact path of a run from its ID. Intermediates go
// to the scratch directory, the final video to the outputs directory, so two
// concurrent runs can never write the same file.
type Layout struct {
	TempDir    string
	OutputsDir string
}

// FaceVideo is the normalized face clip an image input is converted into.
func (l Layout) FaceVideo(runID uuid.UUID) string {
	return filepath.Join(l.TempDir, runID.String()+"_face.mp4")
}

// Audio is the synthesized speech track.
func (l Layout) Audio(runID uuid.UUID) string {
	return filepath.Join(l.TempDir, runID.String()+".wav")
}

// RawOutput is the lip-sync engine's result before browser transcoding.
func (l Layout) RawOutput(runID uuid.UUID) string {
	return filepath.Join(l.TempDir, runID.String()+"_raw.mp4")
}

// FinalOutput is the browser-safe video served to clients.
func (l Layout) FinalOutput(runID uuid.UUID) string {
	return filepath.Join(l.OutputsDir, runID.String()+".mp4")
}
