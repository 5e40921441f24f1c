// Package media wraps the external media transcoding tool. It is invoked
// twice per pipeline run: once to normalize a still image into a face video,
// and once to re-encode the raw synced video for browser playback.
package media

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/facecast/server/internal/module/face"
	apperrors "github.com/facecast/server/internal/shared/errors"
	"github.com/facecast/server/internal/shared/procrun"
)

// NormalizeProfile is the fixed output profile for image-to-video conversion.
// The lip-sync engine requires video input with a predictable geometry.
type NormalizeProfile struct {
	Width     int
	Height    int
	FrameRate int
	Duration  time.Duration
}

// FFmpeg drives the external ffmpeg binary.
type FFmpeg struct {
	runner  procrun.CommandRunner
	binPath string
	profile NormalizeProfile
}

// NewFFmpeg creates an ffmpeg adapter.
func NewFFmpeg(runner procrun.CommandRunner, binPath string, profile NormalizeProfile) *FFmpeg {
	return &FFmpeg{
		runner:  runner,
		binPath: binPath,
		profile: profile,
	}
}

// Normalize converts an image asset into a fixed-duration looping clip at
// outPath. Video assets pass through unchanged with no re-encode. A single
// attempt, no retry.
func (f *FFmpeg) Normalize(ctx context.Context, asset face.Asset, outPath string) (face.Asset, error) {
	if asset.Kind == face.KindVideo {
		return asset, nil
	}

	args := f.normalizeArgs(asset.Path, outPath)
	if err := f.runner.Run(ctx, f.binPath, args...); err != nil {
		return face.Asset{}, apperrors.TranscodeError("normalize face image", err)
	}

	return face.Asset{Path: outPath, Kind: face.KindVideo}, nil
}

// Transcode re-encodes the raw synced video into the browser-safe profile:
// H.264 baseline 3.0, yuv420p, AAC, with moov metadata up front so playback
// can start before the full file downloads.
func (f *FFmpeg) Transcode(ctx context.Context, rawPath, outPath string) (string, error) {
	args := f.transcodeArgs(rawPath, outPath)
	if err := f.runner.Run(ctx, f.binPath, args...); err != nil {
		return "", apperrors.TranscodeError("browser-safe transcode", err)
	}
	return outPath, nil
}

// normalizeArgs builds the image-to-video conversion arguments: loop the
// still for the configured duration, scale aspect-preserving into the target
// frame with letterbox padding, fixed frame rate, yuv420p.
func (f *FFmpeg) normalizeArgs(imagePath, outPath string) []string {
	p := f.profile
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		p.Width, p.Height, p.Width, p.Height,
	)

	return []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-t", strconv.FormatFloat(p.Duration.Seconds(), 'f', -1, 64),
		"-r", strconv.Itoa(p.FrameRate),
		"-vf", vf,
		"-pix_fmt", "yuv420p",
		outPath,
	}
}

// transcodeArgs builds the browser-safe re-encode arguments.
func (f *FFmpeg) transcodeArgs(rawPath, outPath string) []string {
	return []string{
		"-y",
		"-i", rawPath,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-profile:v", "baseline",
		"-level", "3.0",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	}
}
