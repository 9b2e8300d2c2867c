package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macropower/kdev/pkg/execs"
	"github.com/macropower/kdev/pkg/podsel"
	"github.com/macropower/kdev/pkg/resource"
	"github.com/macropower/kdev/pkg/session"
)

// NewGetCmd fetches resources named by a manifest, or interactively.
func NewGetCmd(ra *RootArgs) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get [file]",
		Short: "Get the live state of the resources a manifest declares",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			text, _, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			ids, err := resolveTargets(cmd, d, text)
			if err != nil {
				return silenceCanceled(err)
			}

			for _, id := range ids {
				res, err := d.client.Get(cmd.Context(), id, output)
				if err != nil {
					return err
				}

				err = printResult(cmd, res)
				if err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "wide", "Output format passed to the cluster CLI")

	return cmd
}

// NewDescribeCmd describes a resource.
func NewDescribeCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [file]",
		Short: "Describe the resource a manifest declares",
		Args:  cobra.MaximumNArgs(1),
		RunE: singleTargetRunE(ra, func(cmd *cobra.Command, d *deps, id resource.Identifier) (*execs.Result, error) {
			return d.client.Describe(cmd.Context(), id)
		}),
	}
}

// NewDeleteCmd deletes a resource.
func NewDeleteCmd(ra *RootArgs) *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "delete [file]",
		Short: "Delete the resource a manifest declares",
		Args:  cobra.MaximumNArgs(1),
		RunE: singleTargetRunE(ra, func(cmd *cobra.Command, d *deps, id resource.Identifier) (*execs.Result, error) {
			return d.client.Delete(cmd.Context(), id, now)
		}),
	}

	cmd.Flags().BoolVar(&now, "now", false, "Skip the grace period")

	return cmd
}

// NewScaleCmd scales a resource.
func NewScaleCmd(ra *RootArgs) *cobra.Command {
	var replicas int

	cmd := &cobra.Command{
		Use:   "scale [file]",
		Short: "Scale the resource a manifest declares",
		Args:  cobra.MaximumNArgs(1),
		RunE: singleTargetRunE(ra, func(cmd *cobra.Command, d *deps, id resource.Identifier) (*execs.Result, error) {
			return d.client.Scale(cmd.Context(), id, replicas)
		}),
	}

	cmd.Flags().IntVar(&replicas, "replicas", 1, "Desired replica count")

	return cmd
}

// NewExposeCmd exposes a resource as a service.
func NewExposeCmd(ra *RootArgs) *cobra.Command {
	var (
		port        int
		serviceType string
	)

	cmd := &cobra.Command{
		Use:   "expose [file]",
		Short: "Expose the resource a manifest declares as a service",
		Args:  cobra.MaximumNArgs(1),
		RunE: singleTargetRunE(ra, func(cmd *cobra.Command, d *deps, id resource.Identifier) (*execs.Result, error) {
			return d.client.Expose(cmd.Context(), id, port, serviceType)
		}),
	}

	cmd.Flags().IntVar(&port, "port", 0, "Service port")
	cmd.Flags().StringVar(&serviceType, "type", "", "Service type")

	return cmd
}

// NewExecCmd runs a command inside a pod's container, disambiguating both
// interactively when needed.
func NewExecCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "exec -- command...",
		Short: "Run a command inside a pod, selecting pod and container as needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("no command given, use: %s exec -- command", cmdName)
			}

			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			pod, container, err := selectPodContainer(cmd, d)
			if err != nil {
				return silenceCanceled(err)
			}

			_, err = d.client.Exec(cmd.Context(), pod, container, args...)

			return err
		},
	}
}

// NewLogsCmd fetches logs for a pod's container.
func NewLogsCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Fetch logs, selecting pod and container as needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			pod, container, err := selectPodContainer(cmd, d)
			if err != nil {
				return silenceCanceled(err)
			}

			res, err := d.client.Logs(cmd.Context(), pod, container)
			if err != nil {
				return err
			}

			return printResult(cmd, res)
		},
	}
}

// NewUseContextCmd switches the active kubeconfig context.
func NewUseContextCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "use-context context",
		Short: "Switch the active kubeconfig context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			res, err := d.client.UseContext(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printResult(cmd, res)
		},
	}
}

// NewCreateJobCmd creates a job from an existing cron job.
func NewCreateJobCmd(ra *RootArgs) *cobra.Command {
	var fromCronJob string

	cmd := &cobra.Command{
		Use:   "create-job name --from-cronjob name",
		Short: "Create a job from an existing cron job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			res, err := d.client.CreateJobFromCronJob(cmd.Context(), args[0], fromCronJob, ra.Namespace)
			if err != nil {
				return err
			}

			return printResult(cmd, res)
		},
	}

	cmd.Flags().StringVar(&fromCronJob, "from-cronjob", "", "Cron job to create the job from")

	err := cmd.MarkFlagRequired("from-cronjob")
	if err != nil {
		panic(err)
	}

	return cmd
}

// NewExplainCmd prints cluster documentation for a kind or field path,
// memoized per session.
func NewExplainCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "explain field",
		Short: "Explain a resource kind or field path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			s := session.New(d.client)
			s.ToggleExplain()

			text, err := s.Explain(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), text)

			return nil
		},
	}
}

// singleTargetRunE wraps a command body with single-target resolution:
// manifest text when given, interactive fallback otherwise.
func singleTargetRunE(ra *RootArgs, run func(cmd *cobra.Command, d *deps, id resource.Identifier) (*execs.Result, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps(cmd, ra)
		if err != nil {
			return err
		}

		text, _, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		id, err := d.resolveTarget(cmd.Context(), text)
		if err != nil {
			return silenceCanceled(err)
		}

		res, err := run(cmd, d, id)
		if err != nil {
			return err
		}

		return printResult(cmd, res)
	}
}

// resolveTargets resolves every resource a manifest declares, or one
// interactively resolved target when no text was given.
func resolveTargets(cmd *cobra.Command, d *deps, text string) ([]resource.Identifier, error) {
	if text != "" {
		return resource.ResolveAll(text)
	}

	id, err := d.resolveTarget(cmd.Context(), "")
	if err != nil {
		return nil, err
	}

	return []resource.Identifier{id}, nil
}

func selectPodContainer(cmd *cobra.Command, d *deps) (pod, container string, err error) {
	app, err := appName()
	if err != nil {
		return "", "", err
	}

	selector := podsel.NewSelector(d.client, d.prompter, app)

	p, err := selector.SelectPod(cmd.Context(), podsel.ScopeApp, podsel.FallbackAnyPod)
	if err != nil {
		return "", "", err
	}

	c, err := selector.SelectContainer(cmd.Context(), p)
	if err != nil {
		return "", "", err
	}

	return p.Name, c.Name, nil
}

func printResult(cmd *cobra.Command, res *execs.Result) error {
	if !res.Succeeded() {
		return fmt.Errorf("%s", strings.TrimSpace(res.Stderr))
	}

	fmt.Fprint(cmd.OutOrStdout(), res.Stdout)

	return nil
}
