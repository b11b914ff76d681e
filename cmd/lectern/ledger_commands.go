package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/ledger"
)

func newLedgerCommand(cmdCtx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the attempt ledger",
	}

	ledgerCmd.AddCommand(newLedgerListCommand(cmdCtx))
	ledgerCmd.AddCommand(newLedgerShowCommand(cmdCtx))
	ledgerCmd.AddCommand(newLedgerSummaryCommand(cmdCtx))
	ledgerCmd.AddCommand(newLedgerExportCommand(cmdCtx))

	return ledgerCmd
}

func (c *commandContext) withLedger(fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func newLedgerListCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the most recent attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withLedger(func(store *ledger.Store) error {
				attempts, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderAttempts(attempts, cmd))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of attempts to show")
	return cmd
}

func newLedgerShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <stem>",
		Short: "Show the full attempt history for one recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withLedger(func(store *ledger.Store) error {
				attempts, err := store.ByStem(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(attempts) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No attempts recorded for %q\n", args[0])
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderAttempts(attempts, cmd))
				return nil
			})
		},
	}
}

func newLedgerSummaryCommand(cmdCtx *commandContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Aggregate attempt outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withLedger(func(store *ledger.Store) error {
				summary, err := store.Summarize(cmd.Context(), runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Total", "Succeeded", "Failed", "Skipped"},
					[][]string{{
						strconv.Itoa(summary.Total),
						strconv.Itoa(summary.Succeeded),
						strconv.Itoa(summary.Failed),
						strconv.Itoa(summary.Skipped),
					}},
					cmd.OutOrStdout(),
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Restrict the summary to one run id")
	return cmd
}

func newLedgerExportCommand(cmdCtx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full ledger as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withLedger(func(store *ledger.Store) error {
				out := cmd.OutOrStdout()
				if outputPath != "" {
					file, err := os.Create(outputPath)
					if err != nil {
						return fmt.Errorf("create export file: %w", err)
					}
					defer func() { _ = file.Close() }()
					out = file
				}
				return store.ExportCSV(cmd.Context(), out)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write CSV to a file instead of stdout")
	return cmd
}

func renderAttempts(attempts []ledger.Attempt, cmd *cobra.Command) string {
	rows := make([][]string, 0, len(attempts))
	for _, attempt := range attempts {
		errMsg := attempt.ErrorMessage
		if len(errMsg) > 60 {
			errMsg = errMsg[:57] + "..."
		}
		rows = append(rows, []string{
			strconv.FormatInt(attempt.ID, 10),
			attempt.Stem,
			string(attempt.Outcome),
			attempt.FinishedAt.Local().Format(time.DateTime),
			errMsg,
		})
	}
	return renderTable([]string{"ID", "Stem", "Outcome", "Finished", "Error"}, rows, cmd.OutOrStdout())
}
