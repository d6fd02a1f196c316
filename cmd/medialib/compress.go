package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"media-library/internal/compress"
	"media-library/internal/database"
	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/quality"
	"media-library/internal/transcoder"
	"media-library/internal/tui"
)

type compressOptions struct {
	scope    string
	category string
	file     string
	codec    string
	plain    bool
}

func newCompressCmd(root *rootOptions) *cobra.Command {
	opts := &compressOptions{}
	cmd := &cobra.Command{
		Use:   "compress [flags]",
		Short: "Compress videos in the library",
		Long: "Compress the videos of the whole library, one category or a single file.\n" +
			"Files already in the history are skipped. Ctrl-C cancels after the current file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := opts.job()
			if err != nil {
				return err
			}
			return runCompress(cmd, root.libraryDir, job, opts.plain)
		},
	}
	cmd.Flags().StringVarP(&opts.scope, "scope", "s", string(compress.ScopeAll), "all, category or single")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "category for --scope category")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "file for --scope single, absolute or relative to the library")
	cmd.Flags().StringVar(&opts.codec, "codec", string(quality.CodecHEVC), "av1, hevc, h264 or cpu")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print progress lines instead of the interactive view")
	return cmd
}

func (o *compressOptions) job() (compress.Job, error) {
	scope, err := compress.ParseScope(o.scope)
	if err != nil {
		return compress.Job{}, err
	}
	codec, err := quality.ParseCodec(o.codec)
	if err != nil {
		return compress.Job{}, err
	}
	job := compress.Job{Scope: scope, Category: o.category, FilePath: o.file, Codec: codec}
	if err := job.Validate(); err != nil {
		return compress.Job{}, err
	}
	return job, nil
}

func runCompress(cmd *cobra.Command, libraryFlag string, job compress.Job, plain bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	root, err := env.libraryRoot(ctx, libraryFlag)
	if err != nil {
		return err
	}
	lib := library.New(root, library.Options{History: env.ledger})
	if err := lib.SetRoot(root); err != nil {
		return err
	}

	orch := compress.New(compress.Config{
		Library:    lib,
		Ledger:     env.ledger,
		Prober:     transcoder.NewProber(env.config.FFprobePath),
		Encoder:    transcoder.NewExecutor(env.config.FFmpegPath),
		ScratchDir: env.config.ScratchDir,
	})

	go func() {
		<-ctx.Done()
		orch.Cancel()
	}()

	out := cmd.OutOrStdout()
	startedAt := time.Now()
	var res compress.Result
	if plain {
		res, err = orch.Run(ctx, job, plainProgress(out))
	} else {
		res, err = runInteractive(ctx, orch, job)
	}
	if err != nil {
		return err
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := env.db.RecordRun(recordCtx, database.NewRunRecord(job, res, startedAt)); err != nil {
		logging.Warn("Failed to record compression run: %v", err)
	}

	fmt.Fprintln(out, tui.RenderSummary(tui.ResultRows(res)))
	if res.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to compress", res.Failed)
	}
	return nil
}

func plainProgress(out io.Writer) func(compress.Progress) {
	return func(p compress.Progress) {
		state := "compressing"
		if p.Skipped {
			state = "skipped"
		}
		fmt.Fprintf(out, "[%d/%d] %s %s\n", p.Current, p.Total, state, p.FileName)
	}
}

// runInteractive drives the bubbletea view. Log output is limited to errors
// while the view owns the terminal.
func runInteractive(ctx context.Context, orch *compress.Orchestrator, job compress.Job) (compress.Result, error) {
	level := logging.GetLevel()
	if level < logging.LevelError {
		logging.SetLevel(logging.LevelError)
		defer logging.SetLevel(level)
	}

	updates := make(chan compress.Progress, 64)
	program := tea.NewProgram(tui.NewModel("medialib "+job.String(), updates, orch.Cancel), tea.WithContext(ctx))

	uiDone := make(chan struct{})
	go func() {
		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			logging.Warn("Progress view stopped: %v", err)
		}
		close(uiDone)
	}()

	res, err := orch.Run(ctx, job, func(p compress.Progress) {
		select {
		case updates <- p:
		case <-uiDone:
		}
	})
	close(updates)
	<-uiDone
	return res, err
}
