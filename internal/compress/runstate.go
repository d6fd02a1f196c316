package compress

import (
	"context"
	"errors"
	"os"
	"sync"

	"media-library/internal/logging"
)

// RunState is the cancellation context of one run: the cancelled flag, the
// context cancel func and the single encoder process currently alive.
// It implements transcoder.ProcessTracker.
type RunState struct {
	mu        sync.Mutex
	cancelled bool
	cancel    context.CancelFunc
	proc      *os.Process
}

func newRunState(cancel context.CancelFunc) *RunState {
	return &RunState{cancel: cancel}
}

// Cancel marks the run cancelled and kills the active encoder, if any.
// Repeated calls are no-ops.
func (s *RunState) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.killLocked()
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
}

// Cancelled reports whether Cancel has been called.
func (s *RunState) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// CancelRequested implements transcoder.ProcessTracker.
func (s *RunState) CancelRequested() bool {
	return s.Cancelled()
}

// Attach records the live encoder process. If the run was cancelled between
// spawn and attach, the process is killed right away.
func (s *RunState) Attach(p *os.Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proc = p
	if s.cancelled {
		s.killLocked()
	}
}

// Detach forgets the encoder process once it has exited.
func (s *RunState) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proc = nil
}

func (s *RunState) killLocked() {
	if s.proc == nil {
		return
	}
	if err := s.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logging.Warn("Failed to kill encoder process %d: %v", s.proc.Pid, err)
	}
}
