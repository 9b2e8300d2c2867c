package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macropower/kdev/pkg/debug"
	"github.com/macropower/kdev/pkg/version"
)

// NewDebugCmd runs the debug workflow for the current project.
func NewDebugCmd(ra *RootArgs) *cobra.Command {
	var expose bool

	cmd := &cobra.Command{
		Use:   "debug [-- command...]",
		Short: "Build, push and run a debug deployment, then attach a debugger",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			app, err := appName()
			if err != nil {
				return err
			}

			dir, err := os.Getwd()
			if err != nil {
				return err
			}

			orchestrator := debug.NewOrchestrator(d.invoker, d.client, d.prompter,
				debug.WithDockerBinary(d.cfg.Docker.Binary),
				debug.WithDebugger(d.cfg.Debug.Debugger),
				debug.WithPorts(d.cfg.Debug.DebuggerPort, d.cfg.Debug.AppPort),
				debug.WithPollBounds(d.cfg.Debug.PollInterval, d.cfg.Debug.PollTimeout),
			)

			session, err := orchestrator.Debug(cmd.Context(), dir, app, args, expose)
			if err != nil {
				return silenceCanceled(err)
			}

			if session != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Debug session for %s ended.\n", session.DeploymentName)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&expose, "expose", false, "Expose the debug deployment as a load-balanced service after attaching")

	return cmd
}

// NewRemoveDebugCmd cleans up debug resources for the current project.
func NewRemoveDebugCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-debug",
		Short: "Delete the debug deployment and service for the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			app, err := appName()
			if err != nil {
				return err
			}

			orchestrator := debug.NewOrchestrator(d.invoker, d.client, d.prompter,
				debug.WithDockerBinary(d.cfg.Docker.Binary),
			)

			result, err := orchestrator.RemoveDebug(cmd.Context(), app)
			if err != nil {
				switch {
				case errors.Is(err, debug.ErrNothingToCleanUp):
					fmt.Fprintln(cmd.OutOrStdout(), err.Error())

					return nil
				case errors.Is(err, debug.ErrCleanupDeclined):
					return nil
				}

				return silenceCanceled(err)
			}

			if result != nil {
				if result.DeploymentDeleted {
					fmt.Fprintln(cmd.OutOrStdout(), "Deleted debug deployment.")
				}

				if result.ServiceDeleted {
					fmt.Fprintln(cmd.OutOrStdout(), "Deleted debug service.")
				}
			}

			return nil
		},
	}
}

// NewVersionCmd prints build metadata.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())

			return nil
		},
	}
}
