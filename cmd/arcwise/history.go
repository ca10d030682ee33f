package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/arcwise/internal/cli"
	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/config"
	"github.com/Veraticus/arcwise/internal/model"
	"github.com/Veraticus/arcwise/internal/storage"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show journaled runs",
		Long: `List recent runs from the journal, newest first, or show one run in
full when its id is given.`,
		Example: `  # Last 20 runs
  arcwise history

  # Only runs the validator ended
  arcwise history --stage validator

  # One run with its hand-off records
  arcwise history 6f1c2a9e-0b5d-4c1e-9a53-2f4f8f7e1d20`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 20, "Maximum runs to list")
	cmd.Flags().String("status", "", "Filter by status (completed, failed)")
	cmd.Flags().String("stage", "", "Filter by terminal stage (classifier, decision, validator, executor)")
	cmd.Flags().Bool("json", false, "Print runs as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")
	stage, _ := cmd.Flags().GetString("stage")
	asJSON, _ := cmd.Flags().GetBool("json")

	opts := storage.ListOptions{
		Status: storage.RunStatus(status),
		Stage:  model.Stage(stage),
		Limit:  limit,
	}
	if status != "" && opts.Status != storage.RunCompleted && opts.Status != storage.RunFailed {
		return common.NewUserError("invalid --status", fmt.Errorf("%w: %q", common.ErrInvalidConfig, status))
	}
	if stage != "" && !opts.Stage.Valid() {
		return common.NewUserError("invalid --stage", fmt.Errorf("%w: %q", common.ErrInvalidConfig, stage))
	}

	db := config.LoadDatabase(viper.GetViper())
	if db.Disabled {
		return common.NewUserError("the run journal is disabled", common.ErrMissingConfig)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if len(args) == 1 {
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return enc.Encode(run)
		}
		_, err = fmt.Fprintln(out, cli.RenderRun(run))
		return err
	}

	runs, err := store.ListRuns(ctx, opts)
	if err != nil {
		return err
	}
	if asJSON {
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, cli.FormatInfo("No runs recorded yet. Use 'arcwise run' to start one."))
		return err
	}

	total, err := store.CountRuns(ctx)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Runs (%d of %d)", len(runs), total))); err != nil {
		return err
	}
	return cli.RenderRuns(out, runs)
}
