package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"media-library/internal/logging"
	"media-library/internal/quality"
)

// Outcome is the terminal state of one encode.
type Outcome int

const (
	// OutcomeSuccess means ffmpeg exited 0 and no cancellation was requested.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure means ffmpeg could not start or exited non-zero.
	OutcomeFailure
	// OutcomeCancelled means cancellation was requested while encoding.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ProcessTracker is told about the live ffmpeg process so that a concurrent
// cancel request can kill it.
type ProcessTracker interface {
	// Attach is called right after the process starts.
	Attach(p *os.Process)
	// Detach is called once the process has exited, on every path.
	Detach()
	// CancelRequested reports whether the run has been cancelled.
	CancelRequested() bool
}

// Result describes a finished encode.
type Result struct {
	Outcome  Outcome
	Err      error
	Stderr   string
	Duration time.Duration
}

const (
	defaultStderrLimit = 32 * 1024
	waitDelay          = 5 * time.Second
)

// Executor spawns ffmpeg encodes.
type Executor struct {
	ffmpegPath  string
	stderrLimit int
}

// NewExecutor creates an Executor. An empty path means "ffmpeg" on PATH.
func NewExecutor(ffmpegPath string) *Executor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Executor{ffmpegPath: ffmpegPath, stderrLimit: defaultStderrLimit}
}

// BuildArgs returns the ffmpeg argument list for encoding input into output.
func BuildArgs(input, output string, p quality.Parameters) []string {
	args := []string{"-hide_banner", "-hwaccel", "auto", "-i", input}
	args = append(args, p.Args()...)
	return append(args, "-y", output)
}

// Run encodes input into output. It blocks until ffmpeg exits. A cancel
// requested through tracker (or ctx) always yields OutcomeCancelled, whatever
// the exit code.
func (e *Executor) Run(ctx context.Context, tracker ProcessTracker, input, output string, p quality.Parameters) Result {
	if tracker == nil {
		tracker = nopTracker{}
	}
	if tracker.CancelRequested() || ctx.Err() != nil {
		return Result{Outcome: OutcomeCancelled}
	}

	args := BuildArgs(input, output, p)
	logging.Debug("ffmpeg %v", args)

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.WaitDelay = waitDelay
	stderr := newTailBuffer(e.stderrLimit)
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeCancelled, Err: ctx.Err()}
		}
		return Result{Outcome: OutcomeFailure, Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}

	tracker.Attach(cmd.Process)
	waitErr := cmd.Wait()
	tracker.Detach()

	res := Result{Stderr: stderr.String(), Duration: time.Since(start)}

	switch {
	case tracker.CancelRequested() || ctx.Err() != nil:
		res.Outcome = OutcomeCancelled
		res.Err = context.Canceled
	case waitErr != nil:
		res.Outcome = OutcomeFailure
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.Err = fmt.Errorf("ffmpeg exited with code %d: %w", exitErr.ExitCode(), waitErr)
		} else {
			res.Err = fmt.Errorf("ffmpeg: %w", waitErr)
		}
	default:
		res.Outcome = OutcomeSuccess
	}
	return res
}

type nopTracker struct{}

func (nopTracker) Attach(*os.Process)    {}
func (nopTracker) Detach()               {}
func (nopTracker) CancelRequested() bool { return false }
