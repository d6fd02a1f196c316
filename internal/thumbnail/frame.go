package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"time"

	// Decoder for ffmpeg's image2pipe output
	_ "image/png"

	"media-library/internal/logging"
)

// FrameSource captures a single decoded frame of a video.
type FrameSource interface {
	Capture(ctx context.Context, locator string, offset time.Duration) (image.Image, error)
}

// FFmpegFrameSource captures frames by running ffmpeg with audio disabled and
// decoding one PNG frame from its stdout.
type FFmpegFrameSource struct {
	ffmpegPath string
}

// NewFFmpegFrameSource creates a frame source. An empty path means "ffmpeg"
// on PATH.
func NewFFmpegFrameSource(ffmpegPath string) *FFmpegFrameSource {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegFrameSource{ffmpegPath: ffmpegPath}
}

// Capture seeks to offset and returns the frame there. For clips shorter
// than offset it falls back to the first frame.
func (f *FFmpegFrameSource) Capture(ctx context.Context, locator string, offset time.Duration) (image.Image, error) {
	img, err := f.capture(ctx, locator, offset)
	if err == nil || offset == 0 || ctx.Err() != nil {
		return img, err
	}
	logging.Debug("Frame capture at %v failed for %s: %v, trying first frame", offset, locator, err)
	return f.capture(ctx, locator, 0)
}

func (f *FFmpegFrameSource) capture(ctx context.Context, locator string, offset time.Duration) (image.Image, error) {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64))
	}
	args = append(args,
		"-i", locator,
		"-an",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", locator)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}
