package compress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-library/internal/filesystem"
	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/metrics"
	"media-library/internal/quality"
	"media-library/internal/transcoder"
)

// Prober reads a video's height.
type Prober interface {
	ProbeHeight(ctx context.Context, path string) (int, error)
}

// Encoder runs one encode. *transcoder.Executor implements it.
type Encoder interface {
	Run(ctx context.Context, tracker transcoder.ProcessTracker, input, output string, p quality.Parameters) transcoder.Result
}

// Ledger is the history of files already compressed. *history.Ledger
// implements it.
type Ledger interface {
	Load()
	Contains(path string) bool
	RecordSuccess(path string) error
}

// RootProvider returns the current library root. *library.Library
// implements it.
type RootProvider interface {
	Root() string
}

// Config wires an Orchestrator.
type Config struct {
	Library    RootProvider
	Ledger     Ledger
	Prober     Prober
	Encoder    Encoder
	ScratchDir string
	Retry      filesystem.LockRetryConfig
}

// Progress is emitted once per candidate, skipped ones included.
type Progress struct {
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	FileName string `json:"fileName"`
	Skipped  bool   `json:"skipped,omitempty"`
}

// Result summarises a finished run. Processed+Failed+Skipped never exceeds
// Total; the shortfall is the files left untouched by a cancellation.
type Result struct {
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Cancelled bool          `json:"cancelled"`
	Duration  time.Duration `json:"duration"`
	// Stranded lists encoded copies left in scratch because moving them over
	// the deleted original failed.
	Stranded []string `json:"stranded,omitempty"`
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Active     bool      `json:"active"`
	Job        *Job      `json:"job,omitempty"`
	Progress   *Progress `json:"progress,omitempty"`
	LastResult *Result   `json:"lastResult,omitempty"`
}

// Orchestrator runs compression jobs one at a time.
type Orchestrator struct {
	cfg Config

	mu         sync.Mutex
	state      *RunState
	job        *Job
	progress   *Progress
	lastResult *Result
}

// New creates an Orchestrator. A zero Retry config means
// filesystem.DefaultLockRetryConfig.
func New(cfg Config) *Orchestrator {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = filesystem.DefaultLockRetryConfig()
	}
	return &Orchestrator{cfg: cfg}
}

// Active reports whether a run is in progress.
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state != nil
}

// Cancel stops the active run. It is a no-op when nothing is running.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	state := o.state
	o.mu.Unlock()

	if state == nil {
		logging.Debug("Compression cancel requested with no active run")
		return
	}
	logging.Info("Compression cancel requested")
	state.Cancel()
}

// Status returns the current run state and the last finished result.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := Status{Active: o.state != nil}
	if o.job != nil {
		job := *o.job
		st.Job = &job
	}
	if o.progress != nil {
		p := *o.progress
		st.Progress = &p
	}
	if o.lastResult != nil {
		r := *o.lastResult
		st.LastResult = &r
	}
	return st
}

// Run executes job to completion or cancellation. progress may be nil. It
// returns ErrRunActive if another run is in progress and ErrInvalidJob if the
// job fails validation; per-file errors are only reflected in the counts.
func (o *Orchestrator) Run(ctx context.Context, job Job, progress func(Progress)) (Result, error) {
	runCtx, state, job, err := o.begin(ctx, job)
	if err != nil {
		return Result{}, err
	}
	return o.execute(runCtx, state, job, progress), nil
}

// RunAsync starts job on its own goroutine. Validation and the single-run
// check happen before it returns; done, if set, receives the final result.
func (o *Orchestrator) RunAsync(ctx context.Context, job Job, progress func(Progress), done func(Result)) error {
	runCtx, state, job, err := o.begin(ctx, job)
	if err != nil {
		return err
	}
	go func() {
		res := o.execute(runCtx, state, job, progress)
		if done != nil {
			done(res)
		}
	}()
	return nil
}

// begin normalizes and validates job and claims the single run slot. The
// returned job is the one the run executes.
func (o *Orchestrator) begin(ctx context.Context, job Job) (context.Context, *RunState, Job, error) {
	job = job.Normalize()
	if err := job.Validate(); err != nil {
		return nil, nil, job, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	state := newRunState(cancel)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != nil {
		cancel()
		return nil, nil, job, ErrRunActive
	}
	o.state = state
	o.job = &job
	o.progress = nil
	return runCtx, state, job, nil
}

func (o *Orchestrator) execute(ctx context.Context, state *RunState, job Job, progress func(Progress)) Result {
	defer state.cancel()

	metrics.CompressionActive.Set(1)
	start := time.Now()
	logging.Info("Compression run started: %s", job)

	res := o.run(ctx, state, job, func(p Progress) {
		o.mu.Lock()
		o.progress = &p
		o.mu.Unlock()
		if progress != nil {
			progress(p)
		}
	})
	res.Duration = time.Since(start)

	outcome := "completed"
	if res.Cancelled {
		outcome = "cancelled"
	}
	metrics.CompressionActive.Set(0)
	metrics.CompressionRunsTotal.WithLabelValues(outcome).Inc()
	metrics.CompressionRunDuration.Observe(res.Duration.Seconds())

	logging.Info("Compression run %s in %v: %d processed, %d failed, %d skipped of %d",
		outcome, res.Duration.Round(time.Millisecond), res.Processed, res.Failed, res.Skipped, res.Total)

	o.mu.Lock()
	o.state = nil
	o.lastResult = &res
	o.mu.Unlock()

	return res
}

type fileOutcome int

const (
	fileProcessed fileOutcome = iota
	fileFailed
	fileStranded
	fileCancelled
)

func (o *Orchestrator) run(ctx context.Context, state *RunState, job Job, emit func(Progress)) Result {
	var res Result

	o.cfg.Ledger.Load()

	root := o.cfg.Library.Root()
	tasks, err := Resolve(root, job)
	if err != nil {
		logging.Error("Failed to resolve %s under %s: %v", job, root, err)
		return res
	}
	res.Total = len(tasks)
	if res.Total == 0 {
		logging.Info("Nothing to compress for %s", job)
		return res
	}

	runDir := filepath.Join(o.cfg.ScratchDir, "run-"+uuid.NewString())
	defer o.cleanupScratch(runDir, &res)

	for i, task := range tasks {
		if state.Cancelled() || ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		if o.cfg.Ledger.Contains(task.FullPath) {
			res.Skipped++
			metrics.CompressionFilesTotal.WithLabelValues("skipped").Inc()
			logging.Debug("Skipping %s: already compressed", task.FullPath)
			emit(Progress{Current: i + 1, Total: res.Total, FileName: task.Name, Skipped: true})
			continue
		}

		emit(Progress{Current: i + 1, Total: res.Total, FileName: task.Name})

		tmp, outcome := o.processFile(ctx, state, runDir, task, job.Codec)
		switch outcome {
		case fileProcessed:
			res.Processed++
			metrics.CompressionFilesTotal.WithLabelValues("processed").Inc()
		case fileFailed:
			res.Failed++
			metrics.CompressionFilesTotal.WithLabelValues("failed").Inc()
		case fileStranded:
			res.Failed++
			res.Stranded = append(res.Stranded, tmp)
			metrics.CompressionFilesTotal.WithLabelValues("failed").Inc()
		case fileCancelled:
			res.Cancelled = true
		}
		if res.Cancelled {
			break
		}
	}
	return res
}

// processFile encodes one candidate and replaces the original with the
// result. For a stranded file it also returns the temp path.
func (o *Orchestrator) processFile(ctx context.Context, state *RunState, runDir string, task library.FileTask, codec quality.Codec) (string, fileOutcome) {
	// Probes are short and are not interrupted by cancellation.
	height, err := o.cfg.Prober.ProbeHeight(context.WithoutCancel(ctx), task.FullPath)
	if err != nil {
		logging.Debug("Probe failed for %s, assuming %dp: %v", task.Name, quality.DefaultHeight, err)
		height = quality.DefaultHeight
	}
	params := quality.Derive(height, codec)

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logging.Error("Failed to create scratch directory %s: %v", runDir, err)
		return "", fileFailed
	}
	tmp := filepath.Join(runDir, uuid.NewString()+filepath.Ext(task.Name))

	logging.Info("Encoding %s (%dp, %s %s %d)", task.Name, height, params.Encoder, params.QualityFlag, params.QualityValue)
	result := o.cfg.Encoder.Run(ctx, state, task.FullPath, tmp, params)
	metrics.TranscodeDuration.WithLabelValues(string(codec), result.Outcome.String()).Observe(result.Duration.Seconds())

	switch result.Outcome {
	case transcoder.OutcomeCancelled:
		logging.Info("Encoding of %s cancelled", task.Name)
		removeTemp(tmp)
		return "", fileCancelled
	case transcoder.OutcomeFailure:
		logging.Error("Encoding of %s failed: %v", task.Name, result.Err)
		if result.Stderr != "" {
			logging.Debug("ffmpeg output for %s:\n%s", task.Name, result.Stderr)
		}
		removeTemp(tmp)
		return "", fileFailed
	}

	if err := filesystem.RetryRemove(task.FullPath, o.cfg.Retry); err != nil {
		logging.Error("Failed to remove original %s, keeping it: %v", task.FullPath, err)
		removeTemp(tmp)
		return "", fileFailed
	}
	if err := filesystem.RetryMove(tmp, task.FullPath, o.cfg.Retry); err != nil {
		logging.Error("Failed to move encoded copy into %s; original is gone, encoded copy kept at %s: %v",
			task.FullPath, tmp, err)
		return tmp, fileStranded
	}

	if err := o.cfg.Ledger.RecordSuccess(task.FullPath); err != nil {
		logging.Error("Failed to persist history for %s: %v", task.FullPath, err)
	}
	logging.Info("Compressed %s in %v", task.Name, result.Duration.Round(time.Second))
	return "", fileProcessed
}

// cleanupScratch removes the run directory unless an encoded copy is
// stranded in it.
func (o *Orchestrator) cleanupScratch(runDir string, res *Result) {
	if len(res.Stranded) > 0 {
		logging.Error("Leaving scratch directory %s in place: %d stranded file(s)", runDir, len(res.Stranded))
		return
	}
	if err := os.RemoveAll(runDir); err != nil {
		logging.Warn("Failed to remove scratch directory %s: %v", runDir, err)
	}
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Failed to remove temp file %s: %v", path, err)
	}
}
