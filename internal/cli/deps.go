package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/macropower/kdev/pkg/config"
	"github.com/macropower/kdev/pkg/diffing"
	"github.com/macropower/kdev/pkg/execs"
	"github.com/macropower/kdev/pkg/kubectl"
	"github.com/macropower/kdev/pkg/prompt"
	"github.com/macropower/kdev/pkg/resource"
)

// deps is the per-invocation dependency set. Commands build it from the
// loaded config and the root flags.
type deps struct {
	cfg      *config.Config
	invoker  execs.Invoker
	client   *kubectl.Client
	prompter prompt.Prompter
	out      io.Writer
}

func buildDeps(cmd *cobra.Command, ra *RootArgs) (*deps, error) {
	cfg, err := config.Load(ra.ConfigPath)
	if err != nil {
		return nil, err
	}

	namespace := cfg.Kubectl.Namespace
	if ra.Namespace != "" {
		namespace = ra.Namespace
	}

	invoker := execs.NewShellInvoker()

	clientOpts := []kubectl.ClientOpt{
		kubectl.WithBinary(cfg.Kubectl.Binary),
		kubectl.WithNamespace(namespace),
	}
	if cfg.Kubectl.TranslatePaths {
		clientOpts = append(clientOpts, kubectl.WithHostPathTranslation())
	}

	return &deps{
		cfg:      cfg,
		invoker:  invoker,
		client:   kubectl.NewClient(invoker, clientOpts...),
		prompter: prompt.NewHuhPrompter(),
		out:      cmd.OutOrStdout(),
	}, nil
}

// diffEngine builds the configured diff engine.
func (d *deps) diffEngine() (*diffing.Engine, error) {
	var (
		presenter diffing.Presenter
		err       error
	)

	if d.cfg.Diff.Tool != "" {
		presenter, err = diffing.NewToolPresenter(d.invoker, d.cfg.Diff.Tool)
		if err != nil {
			return nil, err
		}
	} else {
		presenter = diffing.NewUnifiedPresenter(d.out)
	}

	return diffing.NewEngine(d.client, presenter, diffing.WithSavePrompt(d.prompter)), nil
}

// appName is the current project's directory name, used for app-scoped pod
// queries and debug deployment naming.
func appName() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}

	return filepath.Base(wd), nil
}

// readInput reads the manifest argument: `-` means stdin, anything else is
// a file path. It returns the text plus the backing path when one exists.
func readInput(cmd *cobra.Command, args []string) (text, path string, err error) {
	if len(args) == 0 {
		return "", "", nil
	}

	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}

		return string(data), "", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", args[0], err)
	}

	return string(data), args[0], nil
}

// resolveTarget determines the resource a command targets: statically from
// manifest text when one was provided, interactively otherwise. Static
// resolution failures on provided text are reported rather than silently
// falling back, except when no text exists at all.
func (d *deps) resolveTarget(ctx context.Context, text string) (resource.Identifier, error) {
	if text != "" {
		id, err := resource.ResolveOne(text)
		if err == nil {
			return id, nil
		}

		// Semantic ambiguity in supplied text is user-visible; only fall
		// back to prompting when the text names nothing at all.
		if !errors.Is(err, resource.ErrNoResources) {
			return resource.Identifier{}, err
		}
	}

	kp := prompt.NewKindNamePrompter(d.prompter, d.client)

	return kp.Resolve(ctx)
}
