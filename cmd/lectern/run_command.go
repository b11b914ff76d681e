package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"lectern/internal/batch"
	"lectern/internal/logging"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		maxFiles  int
		force     bool
		dryRun    bool
		overrides sourceOverrides
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe every pending recording, one at a time",
		Long: `Run lists the configured source, skips recordings that already have a
completion marker, and transcribes the rest sequentially. Interrupting the
run is safe; the next invocation resumes where this one stopped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			pipe, err := buildPipeline(cfg, overrides, force)
			if err != nil {
				return err
			}
			defer func() { _ = pipe.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if dryRun {
				return printCandidates(ctx, cmd, pipe)
			}

			controller := &batch.Controller{
				Lister:    pipe.lister,
				Registry:  pipe.registry,
				Guard:     pipe.guard,
				Processor: pipe.manager,
				Ledger:    pipe.store,
				Logger:    logging.NewComponentLogger(pipe.logger, "batch"),
				MaxFiles:  maxFiles,
				LockPath:  cfg.LockPath(),
			}

			summary, runErr := controller.Run(ctx)
			printSummary(cmd, summary)
			return runErr
		},
	}

	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "Process at most this many recordings (0 = unlimited)")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess recordings even when their completion marker exists")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List candidates and their status without processing anything")
	cmd.Flags().StringVar(&overrides.inputDir, "input-dir", "", "Local directory to list instead of the configured source")
	cmd.Flags().StringVar(&overrides.remote, "remote", "", "rclone remote name to list instead of the configured source")
	cmd.Flags().StringVar(&overrides.remotePath, "remote-path", "", "Path within the rclone remote")
	return cmd
}

func printCandidates(ctx context.Context, cmd *cobra.Command, pipe *pipeline) error {
	candidates, err := pipe.lister.List(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(candidates))
	pending := 0
	for _, candidate := range candidates {
		status := "pending"
		if pipe.registry.IsComplete(candidate) {
			status = "done"
		} else {
			pending++
		}
		rows = append(rows, []string{
			candidate.Path,
			fmt.Sprintf("%.1f MiB", float64(candidate.Size)/float64(1<<20)),
			status,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable([]string{"Candidate", "Size", "Status"}, rows, out))
	fmt.Fprintf(out, "%d candidates, %d pending\n", len(candidates), pending)
	return nil
}

func printSummary(cmd *cobra.Command, summary batch.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", summary.RunID)
	fmt.Fprintln(out, renderTable(
		[]string{"Candidates", "Completed", "Failed", "Skipped"},
		[][]string{{
			strconv.Itoa(summary.Candidates),
			strconv.Itoa(summary.Completed),
			strconv.Itoa(summary.Failed),
			strconv.Itoa(summary.Skipped),
		}},
		out,
	))
}
