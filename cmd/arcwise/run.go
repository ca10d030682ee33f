package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/arcwise/internal/agents"
	"github.com/Veraticus/arcwise/internal/cli"
	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/pipeline"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [request]",
		Short: "Route one payment request through the agents",
		Long: `Classify a natural-language request and route it through the decision,
validation and execution agents until one of them produces a terminal result.

Arguments are joined with spaces into a single request.`,
		Example: `  # A routine transfer settles through the executor
  arcwise run "Transfer 10 USDC to 0xAbC1234ef5678 for invoice #223"

  # Run the built-in sample requests without network access
  arcwise run --examples --provider offline

  # Emit the terminal result as JSON
  arcwise run --json "Send 20000 USDC to suspicious_user"`,
		RunE: runRun,
	}

	cmd.Flags().Bool("examples", false, "Run the built-in sample requests")
	cmd.Flags().Bool("json", false, "Print results as JSON")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	examples, _ := cmd.Flags().GetBool("examples")
	asJSON, _ := cmd.Flags().GetBool("json")

	var inputs []string
	switch {
	case examples:
		inputs = agents.Examples
	case len(args) > 0:
		inputs = []string{strings.Join(args, " ")}
	default:
		return common.NewUserError("nothing to run", fmt.Errorf("pass a request or --examples"))
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

	out := cmd.OutOrStdout()
	var failed int
	for _, input := range inputs {
		result, err := a.pipeline.Run(ctx, input)
		if err != nil {
			if len(inputs) == 1 {
				return err
			}
			failed++
			writeFailure(out, input, err)
			continue
		}
		if err := writeResult(out, result, asJSON); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(inputs))
	}
	return nil
}

func writeResult(w io.Writer, result *pipeline.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err := fmt.Fprintln(w, cli.RenderResult(result))
	return err
}

func writeFailure(w io.Writer, input string, err error) {
	msg := fmt.Sprintf("%q: %v", input, err)
	if stage, ok := pipeline.FailedStage(err); ok {
		msg = fmt.Sprintf("%q failed at %s: %v", input, stage.Agent(), err)
	}
	if _, werr := fmt.Fprintln(w, cli.FormatError(msg)); werr != nil {
		slog.Warn("Failed to write failure", "error", werr)
	}
}
