// qobsgen diff [path]
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/qobs-build/qobsgen/internal/msg"
)

var diffCmd = &cobra.Command{
	Use:   "diff [workspace path]",
	Short: "Show how generating would change the CMake scripts",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		b := newBuilder(args)
		if err := b.Diff(ctx, cmd.OutOrStdout()); err != nil {
			msg.Fatal("%v", err)
		}
	},
}

func init() {
	// qobsgen diff subcommand
	rootCmd.AddCommand(diffCmd)
	addTargetFlags(diffCmd)
}
