package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLayout(t *testing.T) {
	l := Layout{TempDir: "data/temp", OutputsDir: "data/outputs"}
	runID := uuid.New()

	t.Run("intermediates live in the scratch dir", func(t *testing.T) {
		assert.Equal(t, "data/temp", filepath.Dir(l.FaceVideo(runID)))
		assert.Equal(t, "data/temp", filepath.Dir(l.Audio(runID)))
		assert.Equal(t, "data/temp", filepath.Dir(l.RawOutput(runID)))
		assert.Equal(t, "data/outputs", filepath.Dir(l.FinalOutput(runID)))
	})

	t.Run("two runs never share a path", func(t *testing.T) {
		other := uuid.New()
		a := []string{l.FaceVideo(runID), l.Audio(runID), l.RawOutput(runID), l.FinalOutput(runID)}
		b := []string{l.FaceVideo(other), l.Audio(other), l.RawOutput(other), l.FinalOutput(other)}

		seen := make(map[string]bool)
		for _, p := range append(a, b...) {
			assert.False(t, seen[p], p)
			seen[p] = true
		}
	})
}
