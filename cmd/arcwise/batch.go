package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/arcwise/internal/cli"
	"github.com/Veraticus/arcwise/internal/model"
	"github.com/Veraticus/arcwise/internal/pipeline"
)

const maxRequestBytes = 1 << 20

type runner interface {
	Run(ctx context.Context, text string) (*pipeline.Result, error)
}

// batchFailure is the JSON line written for a request whose run failed.
type batchFailure struct {
	Input string      `json:"input"`
	Error string      `json:"error"`
	Stage model.Stage `json:"stage,omitempty"`
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Run newline-delimited requests concurrently",
		Long: `Read one request per line from a file, or from stdin when the file is
omitted or "-", run each through its own pipeline, and write one JSON line
per request in input order. Blank lines and lines starting with # are skipped.

Requests are independent; batch.workers bounds how many run at once.`,
		Example: `  arcwise batch requests.txt > results.jsonl
  cat requests.txt | arcwise batch --workers 8`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBatchCmd,
	}

	cmd.Flags().Int("workers", 0, "Concurrent runs (default: batch.workers)")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	_ = viper.BindPFlag("batch.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runBatchCmd(cmd *cobra.Command, args []string) error {
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open requests: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	inputs, err := readRequests(in)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo("No requests to run.")) //nolint:forbidigo // User-facing output
		return nil
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	hint := "Runs already finished were not lost."
	if a.store != nil {
		hint = "Finished runs are in the journal; see 'arcwise history'."
	}
	stop := interrupts.HandleInterrupts(ctx, hint)
	defer stop()

	var progress *cli.Progress
	if !noProgress {
		progress = cli.NewProgress(cmd.ErrOrStderr(), len(inputs), "Running requests...")
	}

	slog.Info("Starting batch", "requests", len(inputs), "workers", a.cfg.Batch.Workers)

	failed, err := runBatch(ctx, a.pipeline, inputs, a.cfg.Batch.Workers, cmd.OutOrStdout(), progress)
	if err != nil {
		return err
	}

	slog.Info("Batch complete", "requests", len(inputs), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(inputs))
	}
	return nil
}

// readRequests reads one request per line.
func readRequests(r io.Reader) ([]string, error) {
	var inputs []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read requests: %w", err)
	}

	return inputs, nil
}

// runBatch runs every input through r with at most workers in flight and
// writes one JSON line per finished request in input order. A failed run is
// reported in its line and counted; only cancellation aborts the batch.
func runBatch(ctx context.Context, r runner, inputs []string, workers int, out io.Writer, progress *cli.Progress) (int, error) {
	results := make([]*pipeline.Result, len(inputs))
	errs := make([]error, len(inputs))
	done := make([]bool, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			results[i], errs[i] = r.Run(gctx, input)
			done[i] = true
			progress.Done()
			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr == nil {
		progress.Finish()
	}

	enc := json.NewEncoder(out)
	failed := 0
	for i, input := range inputs {
		if !done[i] {
			continue
		}
		if errs[i] != nil {
			failed++
			line := batchFailure{Input: input, Error: errs[i].Error()}
			if stage, ok := pipeline.FailedStage(errs[i]); ok {
				line.Stage = stage
			}
			if err := enc.Encode(line); err != nil {
				return failed, fmt.Errorf("failed to write result: %w", err)
			}
			continue
		}
		if err := enc.Encode(results[i]); err != nil {
			return failed, fmt.Errorf("failed to write result: %w", err)
		}
	}

	if waitErr != nil {
		return failed, fmt.Errorf("batch interrupted: %w", waitErr)
	}
	return failed, nil
}
