package compress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"media-library/internal/filesystem"
	"media-library/internal/history"
	"media-library/internal/library"
	"media-library/internal/quality"
	"media-library/internal/transcoder"
)

type fakeProber struct {
	heights map[string]int
}

func (f *fakeProber) ProbeHeight(_ context.Context, path string) (int, error) {
	if h, ok := f.heights[filepath.Base(path)]; ok {
		return h, nil
	}
	return 0, errors.New("no video stream")
}

type encodeCall struct {
	input  string
	output string
	params quality.Parameters
}

// fakeEncoder writes "encoded" to the output unless the input's base name is
// listed in fail, skipOutput or block.
type fakeEncoder struct {
	mu         sync.Mutex
	calls      []encodeCall
	fail       map[string]bool
	skipOutput map[string]bool
	block      map[string]bool
	started    chan string
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{
		fail:       map[string]bool{},
		skipOutput: map[string]bool{},
		block:      map[string]bool{},
		started:    make(chan string, 8),
	}
}

func (f *fakeEncoder) Run(ctx context.Context, tracker transcoder.ProcessTracker, input, output string, p quality.Parameters) transcoder.Result {
	f.mu.Lock()
	f.calls = append(f.calls, encodeCall{input: input, output: output, params: p})
	f.mu.Unlock()

	name := filepath.Base(input)
	f.started <- name

	if err := os.WriteFile(output, []byte("partial"), 0o644); err != nil {
		return transcoder.Result{Outcome: transcoder.OutcomeFailure, Err: err}
	}

	if f.block[name] {
		for !tracker.CancelRequested() {
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Millisecond):
			}
		}
		return transcoder.Result{Outcome: transcoder.OutcomeCancelled}
	}
	if f.fail[name] {
		return transcoder.Result{Outcome: transcoder.OutcomeFailure, Err: errors.New("exit status 1"), Stderr: "boom"}
	}
	if f.skipOutput[name] {
		_ = os.Remove(output)
		return transcoder.Result{Outcome: transcoder.OutcomeSuccess}
	}
	if err := os.WriteFile(output, []byte("encoded"), 0o644); err != nil {
		return transcoder.Result{Outcome: transcoder.OutcomeFailure, Err: err}
	}
	return transcoder.Result{Outcome: transcoder.OutcomeSuccess, Duration: time.Millisecond}
}

func (f *fakeEncoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type harness struct {
	root    string
	scratch string
	ledger  *history.Ledger
	lib     *library.Library
	enc     *fakeEncoder
	orch    *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := t.TempDir()
	h := &harness{
		root:    filepath.Join(base, "library"),
		scratch: filepath.Join(base, "scratch"),
		enc:     newFakeEncoder(),
	}
	if err := os.MkdirAll(h.root, 0o755); err != nil {
		t.Fatal(err)
	}
	retry := filesystem.LockRetryConfig{MaxAttempts: 2, Delay: time.Millisecond}
	h.ledger = history.Open(filepath.Join(base, "history.json"))
	h.lib = library.New(h.root, library.Options{History: h.ledger, Retry: retry})
	h.orch = New(Config{
		Library:    h.lib,
		Ledger:     h.ledger,
		Prober:     &fakeProber{heights: map[string]int{"a.mp4": 1300, "b.mp4": 900}},
		Encoder:    h.enc,
		ScratchDir: h.scratch,
		Retry:      retry,
	})
	return h
}

func (h *harness) file(t *testing.T, rel string) string {
	t.Helper()
	p := filepath.Join(h.root, rel)
	touch(t, p)
	return p
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func categoryJob(codec quality.Codec) Job {
	return Job{Scope: ScopeCategory, Category: "Travel", Codec: codec}
}

func TestRunEmptyScope(t *testing.T) {
	h := newHarness(t)

	res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 0 || res.Processed != 0 || res.Failed != 0 || res.Skipped != 0 || res.Cancelled {
		t.Errorf("unexpected result: %+v", res)
	}
	if h.enc.callCount() != 0 {
		t.Errorf("encoder called %d times", h.enc.callCount())
	}
}

func TestRunReplacesOriginals(t *testing.T) {
	h := newHarness(t)
	a := h.file(t, "Travel/a.mp4")
	b := h.file(t, "Travel/b.mp4")

	var events []Progress
	res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecHEVC), func(p Progress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Total != 2 || res.Processed != 2 || res.Failed != 0 || res.Skipped != 0 || res.Cancelled {
		t.Errorf("unexpected result: %+v", res)
	}
	for _, p := range []string{a, b} {
		if got := readFile(t, p); got != "encoded" {
			t.Errorf("%s content = %q, want encoded", p, got)
		}
		if !h.ledger.Contains(p) {
			t.Errorf("ledger missing %s", p)
		}
	}

	if len(events) != 2 || events[0] != (Progress{Current: 1, Total: 2, FileName: "a.mp4"}) || events[1].Current != 2 {
		t.Errorf("progress events = %+v", events)
	}

	// a.mp4 probes at 1300 (base 34), HEVC is base-4.
	if got := h.enc.calls[0].params.QualityValue; got != 30 {
		t.Errorf("a.mp4 quality = %d, want 30", got)
	}
	if got := h.enc.calls[0].params.Encoder; got != "hevc_nvenc" {
		t.Errorf("encoder = %q", got)
	}
	if filepath.Ext(h.enc.calls[0].output) != ".mp4" {
		t.Errorf("temp output %q should keep the extension", h.enc.calls[0].output)
	}

	entries, _ := os.ReadDir(h.scratch)
	if len(entries) != 0 {
		t.Errorf("scratch not cleaned: %d entries", len(entries))
	}
	if st := h.orch.Status(); st.Active || st.LastResult == nil || st.LastResult.Processed != 2 {
		t.Errorf("status = %+v", st)
	}
}

func TestRunSkipsLedgerEntries(t *testing.T) {
	h := newHarness(t)
	a := h.file(t, "Travel/a.mp4")
	h.file(t, "Travel/b.mp4")
	if err := h.ledger.RecordSuccess(a); err != nil {
		t.Fatal(err)
	}

	var events []Progress
	res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), func(p Progress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != 1 || res.Processed != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if h.enc.callCount() != 1 || filepath.Base(h.enc.calls[0].input) != "b.mp4" {
		t.Errorf("encoder calls = %+v", h.enc.calls)
	}
	if readFile(t, a) != "original" {
		t.Error("skipped file was modified")
	}
	if len(events) != 2 || !events[0].Skipped || events[1].Skipped {
		t.Errorf("progress events = %+v", events)
	}
}

func TestRunPicksUpExternalLedgerChanges(t *testing.T) {
	h := newHarness(t)
	a := h.file(t, "Travel/a.mp4")

	other := history.Open(h.ledger.Path())
	if err := other.RecordSuccess(a); err != nil {
		t.Fatal(err)
	}

	res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != 1 || h.enc.callCount() != 0 {
		t.Errorf("result = %+v, encoder calls = %d", res, h.enc.callCount())
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	h := newHarness(t)
	h.file(t, "Travel/a.mp4")
	h.file(t, "Travel/b.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.orch.Run(ctx, categoryJob(quality.CodecAV1), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Cancelled || res.Processed != 0 || res.Failed != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if h.enc.callCount() != 0 {
		t.Errorf("encoder called %d times", h.enc.callCount())
	}
}

func TestRunFailureKeepsOriginal(t *testing.T) {
	h := newHarness(t)
	a := h.file(t, "Travel/a.mp4")
	b := h.file(t, "Travel/b.mp4")
	h.enc.fail["a.mp4"] = true

	res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 || res.Processed != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if readFile(t, a) != "original" {
		t.Error("failed file was replaced")
	}
	if h.ledger.Contains(a) {
		t.Error("failed file recorded in ledger")
	}
	if !h.ledger.Contains(b) {
		t.Error("successful file missing from ledger")
	}
	if _, err := os.Stat(h.enc.calls[0].output); !os.IsNotExist(err) {
		t.Error("temp output of failed encode not removed")
	}
}

func TestRunCancelMidEncode(t *testing.T) {
	h := newHarness(t)
	a := h.file(t, "Travel/a.mp4")
	h.file(t, "Travel/b.mp4")
	h.enc.block["a.mp4"] = true

	done := make(chan Result, 1)
	go func() {
		res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil)
		if err != nil {
			t.Errorf("Run: %v", err)
		}
		done <- res
	}()

	select {
	case <-h.enc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("encode never started")
	}
	if !h.orch.Active() {
		t.Error("orchestrator should be active")
	}
	h.orch.Cancel()

	var res Result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}

	if !res.Cancelled || res.Processed != 0 || res.Failed != 0 || res.Total != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if h.enc.callCount() != 1 {
		t.Errorf("encoder called %d times, want 1", h.enc.callCount())
	}
	if readFile(t, a) != "original" {
		t.Error("cancelled file was replaced")
	}
	if _, err := os.Stat(h.enc.calls[0].output); !os.IsNotExist(err) {
		t.Error("temp output of cancelled encode not removed")
	}
	if h.orch.Active() {
		t.Error("orchestrator still active")
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	h := newHarness(t)
	h.file(t, "Travel/a.mp4")
	h.enc.block["a.mp4"] = true

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil)
	}()
	<-h.enc.started

	if _, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil); !errors.Is(err, ErrRunActive) {
		t.Errorf("second Run err = %v, want ErrRunActive", err)
	}
	if err := h.orch.RunAsync(context.Background(), categoryJob(quality.CodecAV1), nil, nil); !errors.Is(err, ErrRunActive) {
		t.Errorf("RunAsync err = %v, want ErrRunActive", err)
	}

	h.orch.Cancel()
	<-done
}

func TestRunInvalidJob(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.Run(context.Background(), Job{Scope: ScopeCategory, Codec: quality.CodecAV1}, nil); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("err = %v, want ErrInvalidJob", err)
	}
	if h.orch.Active() {
		t.Error("invalid job left orchestrator active")
	}
}

func TestCancelWithoutRunIsNoop(t *testing.T) {
	h := newHarness(t)
	h.orch.Cancel()
	if h.orch.Active() {
		t.Error("Cancel started a run")
	}

	h.file(t, "Travel/a.mp4")
	res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil)
	if err != nil || res.Processed != 1 || res.Cancelled {
		t.Errorf("run after idle cancel = %+v, %v", res, err)
	}
}

func TestRunProbeFailureUsesDefaultHeight(t *testing.T) {
	h := newHarness(t)
	h.file(t, "Travel/unknown.mp4")

	if _, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.enc.calls[0].params.QualityValue; got != quality.BaseQuantizer {
		t.Errorf("quality = %d, want %d", got, quality.BaseQuantizer)
	}
}

func TestRunStrandedOutputIsKept(t *testing.T) {
	h := newHarness(t)
	a := h.file(t, "Travel/a.mp4")
	h.enc.skipOutput["a.mp4"] = true

	res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecAV1), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 || res.Processed != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(res.Stranded) != 1 || res.Stranded[0] != h.enc.calls[0].output {
		t.Errorf("stranded = %v", res.Stranded)
	}
	if h.ledger.Contains(a) {
		t.Error("stranded file recorded in ledger")
	}
	if _, err := os.Stat(filepath.Dir(res.Stranded[0])); err != nil {
		t.Errorf("scratch run directory removed despite stranded file: %v", err)
	}
}

func TestRenameAfterCompressionMigratesLedger(t *testing.T) {
	h := newHarness(t)
	a := h.file(t, "Travel/a.mp4")

	if _, err := h.orch.Run(context.Background(), Job{Scope: ScopeSingle, FilePath: a, Codec: quality.CodecCPU}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !h.ledger.Contains(a) {
		t.Fatal("ledger missing compressed file")
	}

	if _, err := h.lib.Rename("Travel", "a.mp4", "sunrise"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	renamed := filepath.Join(h.root, "Travel", "sunrise.mp4")
	if !h.ledger.Contains(renamed) || h.ledger.Contains(a) {
		t.Errorf("ledger paths = %v", h.ledger.Paths())
	}

	res, err := h.orch.Run(context.Background(), categoryJob(quality.CodecCPU), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != 1 || res.Processed != 0 {
		t.Errorf("re-run after rename = %+v", res)
	}
}

func TestRunAsync(t *testing.T) {
	h := newHarness(t)
	h.file(t, "Travel/a.mp4")

	done := make(chan Result, 1)
	if err := h.orch.RunAsync(context.Background(), categoryJob(quality.CodecAV1), nil, func(r Result) { done <- r }); err != nil {
		t.Fatalf("RunAsync: %v", err)
	}

	select {
	case res := <-done:
		if res.Processed != 1 {
			t.Errorf("unexpected result: %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("async run did not finish")
	}

	if err := h.orch.RunAsync(context.Background(), Job{Scope: "bogus"}, nil, nil); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("err = %v, want ErrInvalidJob", err)
	}
}

func TestRunNormalizesJobCase(t *testing.T) {
	h := newHarness(t)
	h.file(t, "Travel/a.mp4")

	res, err := h.orch.Run(context.Background(), Job{Scope: "ALL", Codec: "AV1"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 1 || res.Processed != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if got := h.enc.calls[0].params.Encoder; got != "av1_nvenc" {
		t.Errorf("encoder = %q, want av1_nvenc", got)
	}
}

func TestRunRejectsCategoryOutsideRoot(t *testing.T) {
	h := newHarness(t)
	outside := filepath.Join(filepath.Dir(h.root), "outside", "secret.mp4")
	touch(t, outside)

	for _, category := range []string{"../outside", "..", "Travel/../../outside"} {
		job := Job{Scope: ScopeCategory, Category: category, Codec: quality.CodecHEVC}
		if _, err := h.orch.Run(context.Background(), job, nil); !errors.Is(err, ErrInvalidJob) {
			t.Errorf("category %q: err = %v, want ErrInvalidJob", category, err)
		}
	}
	if h.enc.callCount() != 0 {
		t.Errorf("encoder called %d times", h.enc.callCount())
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside the library touched: %v", err)
	}
}
