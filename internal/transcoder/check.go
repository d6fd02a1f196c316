package transcoder

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CheckFFmpeg verifies that the binary resolves and answers -version. It
// returns the resolved path and the first line of the version banner.
func CheckFFmpeg(ctx context.Context, binary string) (path, version string, err error) {
	if binary == "" {
		binary = "ffmpeg"
	}
	path, err = exec.LookPath(binary)
	if err != nil {
		return "", "", fmt.Errorf("%s not found in PATH", binary)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return path, "", fmt.Errorf("failed to get %s version: %w", binary, err)
	}

	first, _, _ := strings.Cut(string(output), "\n")
	return path, strings.TrimSpace(first), nil
}
