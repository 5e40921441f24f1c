package face

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facecast/server/internal/module/avatar"
	apperrors "github.com/facecast/server/internal/shared/errors"
)

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		kind     Kind
	}{
		{"face.png", KindImage},
		{"face.JPG", KindImage},
		{"face.jpeg", KindImage},
		{"face.webp", KindImage},
		{"clip.mp4", KindVideo},
		{"clip.mov", KindVideo},
		{"noextension", KindVideo},
		{"weird.tar.gz", KindVideo},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindFromFilename(tt.filename))
		})
	}
}

func testRegistry(t *testing.T) (*avatar.Registry, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bengal.png"), []byte("png"), 0o644))
	reg := avatar.NewRegistry(dir, []avatar.Entry{
		{ID: "bengal.png", ImagePath: "bengal.png", Speaker: "manisha"},
	})
	return reg, dir
}

func TestResolver_Resolve(t *testing.T) {
	reg, _ := testRegistry(t)

	t.Run("no source fails with validation error", func(t *testing.T) {
		r := NewResolver(t.TempDir(), reg, "")
		_, err := r.Resolve(Request{})
		assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
	})

	t.Run("unknown avatar fails with not found", func(t *testing.T) {
		r := NewResolver(t.TempDir(), reg, "")
		_, err := r.Resolve(Request{AvatarID: "unknown.png"})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("avatar resolves to image asset", func(t *testing.T) {
		r := NewResolver(t.TempDir(), reg, "")
		asset, err := r.Resolve(Request{AvatarID: "bengal.png"})
		require.NoError(t, err)
		assert.Equal(t, KindImage, asset.Kind)
		assert.FileExists(t, asset.Path)
	})

	t.Run("upload takes priority over avatar", func(t *testing.T) {
		uploads := t.TempDir()
		r := NewResolver(uploads, reg, "")

		asset, err := r.Resolve(Request{
			Upload:   &Upload{Reader: strings.NewReader("video-bytes"), Filename: "me.mp4"},
			AvatarID: "bengal.png",
		})
		require.NoError(t, err)
		assert.Equal(t, KindVideo, asset.Kind)
		assert.Equal(t, uploads, filepath.Dir(asset.Path))

		data, err := os.ReadFile(asset.Path)
		require.NoError(t, err)
		assert.Equal(t, "video-bytes", string(data))
	})

	t.Run("uploaded image keeps image kind", func(t *testing.T) {
		r := NewResolver(t.TempDir(), reg, "")
		asset, err := r.Resolve(Request{
			Upload: &Upload{Reader: strings.NewReader("img"), Filename: "selfie.png"},
		})
		require.NoError(t, err)
		assert.Equal(t, KindImage, asset.Kind)
	})

	t.Run("concurrent uploads get distinct paths", func(t *testing.T) {
		r := NewResolver(t.TempDir(), reg, "")

		a, err := r.Resolve(Request{Upload: &Upload{Reader: strings.NewReader("one"), Filename: "a.mp4"}})
		require.NoError(t, err)
		b, err := r.Resolve(Request{Upload: &Upload{Reader: strings.NewReader("two"), Filename: "a.mp4"}})
		require.NoError(t, err)

		assert.NotEqual(t, a.Path, b.Path)
	})

	t.Run("reference clip is the last fallback", func(t *testing.T) {
		ref := filepath.Join(t.TempDir(), "face_ref.mp4")
		require.NoError(t, os.WriteFile(ref, []byte("ref"), 0o644))

		r := NewResolver(t.TempDir(), reg, ref)
		asset, err := r.Resolve(Request{})
		require.NoError(t, err)
		assert.Equal(t, KindVideo, asset.Kind)
		assert.Equal(t, ref, asset.Path)
	})

	t.Run("missing reference clip fails with not found", func(t *testing.T) {
		r := NewResolver(t.TempDir(), reg, "/nope/face_ref.mp4")
		_, err := r.Resolve(Request{})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}
