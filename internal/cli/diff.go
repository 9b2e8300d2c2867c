package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macropower/kdev/pkg/diffing"
	"github.com/macropower/kdev/pkg/execs"
)

// NewDiffCmd compares a local manifest with the live cluster object.
func NewDiffCmd(ra *RootArgs) *cobra.Command {
	var (
		text   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "diff [file]",
		Short: "Compare a local manifest with the live cluster object",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			source, err := resolveDiffSource(cmd, args, text, format)
			if err != nil {
				return err
			}

			engine, err := d.diffEngine()
			if err != nil {
				return err
			}

			outcome, err := engine.Classify(cmd.Context(), source)
			if err != nil {
				return silenceCanceled(err)
			}

			return reportOutcome(cmd.OutOrStdout(), outcome)
		},
	}

	addSourceFlags(cmd, &text, &format)

	return cmd
}

// NewApplyCmd applies a local manifest, confirming with outcome-specific
// wording first.
func NewApplyCmd(ra *RootArgs) *cobra.Command {
	var (
		text   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Diff a local manifest against the cluster, then apply it on confirmation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd, ra)
			if err != nil {
				return err
			}

			source, err := resolveDiffSource(cmd, args, text, format)
			if err != nil {
				return err
			}

			engine, err := d.diffEngine()
			if err != nil {
				return err
			}

			outcome, err := engine.Classify(cmd.Context(), source)
			if err != nil {
				return silenceCanceled(err)
			}

			message, create, ok := diffing.ApplyDecision(outcome)
			if !ok {
				return reportOutcome(cmd.OutOrStdout(), outcome)
			}

			confirmed, err := d.prompter.Confirm(cmd.Context(), message)
			if err != nil {
				return silenceCanceled(err)
			}

			if !confirmed {
				return nil
			}

			return runApply(cmd, d, source, create)
		},
	}

	addSourceFlags(cmd, &text, &format)

	return cmd
}

func addSourceFlags(cmd *cobra.Command, text, format *string) {
	cmd.Flags().StringVar(text, "text", "", "Manifest text to use instead of a file")
	cmd.Flags().StringVar(format, "format", "", "Force the comparison format for --text, one of: yaml, json")
}

func runApply(cmd *cobra.Command, d *deps, source diffing.Source, create bool) error {
	// Classification already resolved any save question, so the input is
	// derived without prompting again.
	text, path := diffing.ApplyInput(source)

	var (
		res *execs.Result
		err error
	)

	switch {
	case path != "" && create:
		res, err = d.client.CreateFile(cmd.Context(), path)
	case path != "":
		res, err = d.client.ApplyFile(cmd.Context(), path)
	case create:
		res, err = d.client.CreateStdin(cmd.Context(), text)
	default:
		res, err = d.client.ApplyStdin(cmd.Context(), text)
	}

	if err != nil {
		return err
	}

	if !res.Succeeded() {
		return fmt.Errorf("apply failed: %s", strings.TrimSpace(res.Stderr))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Applied.")

	return nil
}

// resolveDiffSource maps command input onto a diff source, in priority
// order: explicit --text, piped stdin, file path.
func resolveDiffSource(cmd *cobra.Command, args []string, text, format string) (diffing.Source, error) {
	var (
		stdin []byte
		path  string
	)

	if len(args) > 0 {
		if args[0] == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}

			stdin = data
		} else {
			path = args[0]
		}
	}

	source := diffing.ResolveSource(text, stdin, path)

	if sel, ok := source.(diffing.SelectionSource); ok && format != "" {
		sel.ForcedFormat = diffing.Format(format)
		source = sel
	}

	return source, nil
}

func reportOutcome(w io.Writer, outcome diffing.Outcome) error {
	switch o := outcome.(type) {
	case diffing.Succeeded:
		return nil

	case diffing.NoEditor:
		return fmt.Errorf("nothing to diff: no manifest file or input provided")

	case diffing.NothingToDiff:
		return fmt.Errorf("nothing to diff: the input is empty")

	case diffing.NoKindName:
		return fmt.Errorf("unable to determine the target resource: %s", o.Reason)

	case diffing.NoClusterResource:
		fmt.Fprintf(w, "Resource %s does not exist on the cluster.\n", o.ResourceName)

		return nil

	case diffing.GetFailed:
		return fmt.Errorf("get live object: %s", strings.TrimSpace(o.Stderr))
	}

	return nil
}
