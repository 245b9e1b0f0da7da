// qobsgen [path], qobsgen generate [path]
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/qobs-build/qobsgen/internal/builder"
	"github.com/qobs-build/qobsgen/internal/msg"
	"github.com/qobs-build/qobsgen/internal/toolset"
)

var (
	flagSystem  string
	flagCheck   bool
	flagToolset EnumValue = NewEnumValue(builder.ToolsetAuto, map[string]string{
		builder.ToolsetAuto: "Use each configuration's toolset, falling back to $CC (default)",
		"gcc":               "GNU Compiler Collection",
		"clang":             "Clang/LLVM",
		"msc":               "Microsoft C/C++ compiler",
	})
)

func targetDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func newBuilder(args []string) *builder.Builder {
	override, fallback := builder.ResolveToolset(flagToolset.Value())
	if override != "" {
		if _, ok := toolset.Lookup(override); !ok {
			msg.Fatal("%v", &toolset.UnknownToolsetError{Name: override})
		}
		msg.Debug("using toolset %s", override)
	}
	if fallback != "" {
		msg.Debug("configurations without a toolset use %s", fallback)
	}

	b, err := builder.NewBuilderInDirectory(targetDir(args), builder.Options{
		System:         flagSystem,
		Toolset:        override,
		DefaultToolset: fallback,
	})
	if err != nil {
		msg.Fatal("%v", err)
	}
	return b
}

func doGenerate(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := newBuilder(args)
	if flagCheck {
		if err := b.Check(ctx); err != nil {
			if errors.Is(err, builder.ErrOutOfDate) {
				msg.Error("%v, run %s to update them", err, getProgramName())
				os.Exit(1)
			}
			msg.Fatal("%v", err)
		}
		msg.Info("generated files are up to date")
		return
	}
	if err := b.Generate(ctx); err != nil {
		msg.Fatal("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qobsgen [workspace path]",
	Short: "Generate CMake scripts from a Workspace.toml",
	Long:  `Generate CMake scripts from a Workspace.toml. If no workspace path is given, uses "."`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doGenerate,
}

var generateCmd = &cobra.Command{
	Use:     "generate [workspace path]",
	Aliases: []string{"gen"},
	Short:   "Generate the CMake scripts of a workspace",
	Long:    `Generate the CMake scripts of a workspace. If no workspace path is given, uses "."`,
	Args:    cobra.MaximumNArgs(1),
	Run:     doGenerate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&msg.Verbose, "verbose", "v", false, "Print debug messages")
	addGenerateFlags(rootCmd)

	// qobsgen generate subcommand
	rootCmd.AddCommand(generateCmd)
	addGenerateFlags(generateCmd)
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagSystem, "os", "", "Target system of every configuration (windows, linux, macosx, ...), defaults to the host")
	cmd.Flags().Var(&flagToolset, "cc", "Toolset to generate for, one of "+flagToolset.HelpString())
	cmd.RegisterFlagCompletionFunc("cc", flagToolset.CompletionFunc())
}

func addGenerateFlags(cmd *cobra.Command) {
	addTargetFlags(cmd)
	cmd.Flags().BoolVar(&flagCheck, "check", false, "Write nothing, fail if any generated file is out of date")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
