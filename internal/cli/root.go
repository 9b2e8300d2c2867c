// Package cli implements the kdev command tree.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/kdev/pkg/log"
	"github.com/macropower/kdev/pkg/prompt"
)

const (
	cmdName = "kdev"
	cmdDesc = `Kubernetes development workflows: diff, apply, and debug local manifests against a live cluster.`

	cmdExamples = `  # Compare a manifest with the live object:
  kdev diff ./deployment.yaml

  # Compare piped manifest text:
  cat deployment.yaml | kdev diff -

  # Apply with outcome-aware confirmation:
  kdev apply ./deployment.yaml

  # Build, push, run and attach a debugger:
  kdev debug -- ./app --listen :8080

  # Clean up debug resources:
  kdev remove-debug`
)

type RootArgs struct {
	LogLevel   string
	LogFormat  string
	ConfigPath string
	Namespace  string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.ConfigPath, "config", "", "Path to the kdev configuration file")
	cmd.PersistentFlags().
		StringVarP(&ra.Namespace, "namespace", "n", "", "Namespace for namespaced commands")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           cmdExamples,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging(args),
	}

	args.AddFlags(cmd)

	cmd.AddCommand(
		NewDiffCmd(args),
		NewApplyCmd(args),
		NewGetCmd(args),
		NewDescribeCmd(args),
		NewDeleteCmd(args),
		NewExecCmd(args),
		NewLogsCmd(args),
		NewScaleCmd(args),
		NewExposeCmd(args),
		NewUseContextCmd(args),
		NewCreateJobCmd(args),
		NewExplainCmd(args),
		NewDebugCmd(args),
		NewRemoveDebugCmd(args),
		NewVersionCmd(),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		return nil
	}
}

// silenceCanceled maps a dismissed prompt onto a silent, successful exit.
// Every other error propagates to the command handler.
func silenceCanceled(err error) error {
	if errors.Is(err, prompt.ErrCanceled) {
		return nil
	}

	return err
}
