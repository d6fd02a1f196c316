package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultProbeTimeout = 30 * time.Second

// Prober reads stream properties with ffprobe.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
}

// NewProber creates a Prober. An empty path means "ffprobe" on PATH.
func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffprobePath: ffprobePath, timeout: defaultProbeTimeout}
}

// ProbeHeight returns the height of the first video stream. Callers treat any
// error as "standard resolution".
func (p *Prober) ProbeHeight(ctx context.Context, filePath string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=height",
		"-of", "csv=p=0",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe error: %w - %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseHeight(stdout.String())
}

// parseHeight reads the first non-empty line of ffprobe's csv output.
func parseHeight(output string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.Trim(strings.TrimSpace(line), ",")
		if line == "" {
			continue
		}
		height, err := strconv.Atoi(line)
		if err != nil {
			return 0, fmt.Errorf("unexpected ffprobe output %q: %w", line, err)
		}
		if height <= 0 {
			return 0, fmt.Errorf("invalid height %d", height)
		}
		return height, nil
	}
	return 0, fmt.Errorf("ffprobe reported no video stream")
}
