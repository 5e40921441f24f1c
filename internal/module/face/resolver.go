// Package face resolves the visual input of a generation request into a
// concrete media asset on disk.
package face

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/facecast/server/internal/module/avatar"
	apperrors "github.com/facecast/server/internal/shared/errors"
)

// Kind classifies a face asset.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Asset is a face input resolved to a file on disk.
type Asset struct {
	Path string
	Kind Kind
}

// Upload is a face file sent with the request. Reader is consumed exactly
// once when the upload is persisted.
type Upload struct {
	Reader   io.Reader
	Filename string
}

// Request carries the possible face sources of one generation request.
type Request struct {
	Upload   *Upload
	AvatarID string
}

// Raster image extensions treated as image kind. Anything else, including a
// missing extension, is treated as video.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

// KindFromFilename classifies a declared filename by its extension.
func KindFromFilename(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	if imageExtensions[ext] {
		return KindImage
	}
	return KindVideo
}

// Resolver picks the face source for a request and materializes it on disk.
// Precedence: uploaded file, then named avatar, then the configured reference
// clip. A request matching none of them is a validation failure.
type Resolver struct {
	uploadsDir    string
	registry      *avatar.Registry
	referenceClip string // optional fixed fallback face, "" disables
}

// NewResolver creates a resolver. referenceClip may be empty when the
// deployment has no fixed fallback face.
func NewResolver(uploadsDir string, registry *avatar.Registry, referenceClip string) *Resolver {
	return &Resolver{
		uploadsDir:    uploadsDir,
		registry:      registry,
		referenceClip: referenceClip,
	}
}

// Resolve returns the face asset for the request, persisting an uploaded file
// to a per-request unique scratch path first.
func (r *Resolver) Resolve(req Request) (Asset, error) {
	if req.Upload != nil {
		return r.persistUpload(req.Upload)
	}

	if req.AvatarID != "" {
		entry, err := r.registry.Get(req.AvatarID)
		if err != nil {
			return Asset{}, err
		}
		return Asset{Path: entry.ImagePath, Kind: KindImage}, nil
	}

	if r.referenceClip != "" {
		if _, err := os.Stat(r.referenceClip); err != nil {
			return Asset{}, apperrors.NotFound("reference clip " + r.referenceClip)
		}
		return Asset{Path: r.referenceClip, Kind: KindVideo}, nil
	}

	return Asset{}, apperrors.ValidationError("no face source provided")
}

// persistUpload writes the upload to a uniquely named file under uploadsDir.
// The name is derived from a fresh UUID so concurrent requests never collide.
func (r *Resolver) persistUpload(u *Upload) (Asset, error) {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	path := filepath.Join(r.uploadsDir, uuid.New().String()+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Asset{}, apperrors.Internal(fmt.Sprintf("create upload file %s", path), err)
	}
	defer f.Close()

	if _, err := io.Copy(f, u.Reader); err != nil {
		return Asset{}, apperrors.Internal("persist upload", err)
	}

	return Asset{Path: path, Kind: KindFromFilename(u.Filename)}, nil
}
