package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-talk/internal/cli"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <utterance>",
		Short: "Record, delete or ask about expenses in one go",
		Example: `  spice-talk ask "Add $12.50 for lunch yesterday"
  spice-talk ask "What percentage of my spending is groceries?" --trace`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}
	cmd.Flags().Bool("trace", false, "show the thinking trace")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	showTrace, _ := cmd.Flags().GetBool("trace")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.exchange(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), showTrace, nil)
}

// exchange processes one utterance, applies its changes and prints the
// response.
func (a *app) exchange(ctx context.Context, w io.Writer, input string, showTrace bool, onStep model.StepFunc) error {
	result := a.engine.Process(ctx, input, onStep)
	if err := a.engine.Apply(ctx, result); err != nil {
		a.logger.Error("Failed to apply changes", "error", err, "intent", result.Intent)
		_, _ = fmt.Fprintln(w, cli.FormatError("I understood that, but couldn't save the change."))
		return err
	}
	return cli.RenderResult(w, result, showTrace)
}
