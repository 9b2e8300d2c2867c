// Package diffing classifies and presents local-vs-live manifest
// comparisons.
//
// One classification run resolves the local text, queries the live object
// through the cluster CLI, and maps the result onto a fixed set of
// [Outcome] variants that drive the diff and apply commands.
package diffing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/macropower/kdev/pkg/kubectl"
	"github.com/macropower/kdev/pkg/prompt"
	"github.com/macropower/kdev/pkg/resource"
)

// Engine computes diff outcomes.
type Engine struct {
	client    *kubectl.Client
	presenter Presenter
	prompter  prompt.Prompter
	tmpDir    string
}

// NewEngine creates a new [Engine].
func NewEngine(client *kubectl.Client, presenter Presenter, opts ...EngineOpt) *Engine {
	e := &Engine{
		client:    client,
		presenter: presenter,
		tmpDir:    os.TempDir(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type EngineOpt func(e *Engine)

// WithSavePrompt enables the save confirmation for file sources carrying
// unsaved text. Without it, unsaved text is compared directly.
func WithSavePrompt(p prompt.Prompter) EngineOpt {
	return func(e *Engine) {
		e.prompter = p
	}
}

// WithTempDir overrides the directory for materialized comparison files.
func WithTempDir(dir string) EngineOpt {
	return func(e *Engine) {
		e.tmpDir = dir
	}
}

// Classify runs one local-vs-live comparison and reports its outcome. The
// error return is reserved for prompt cancellation and local I/O failures;
// cluster-side failures are outcomes, not errors.
func (e *Engine) Classify(ctx context.Context, source Source) (Outcome, error) {
	if source == nil {
		return NoEditor{}, nil
	}

	text, localPath, err := e.MaterializeText(ctx, source)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return NothingToDiff{}, nil
	}

	format := detectFormat(text)

	// A forced format renames the materialized files; the live query still
	// follows the content so both sides compare in the same serialization.
	ext := format
	if sel, ok := source.(SelectionSource); ok && sel.ForcedFormat != "" {
		ext = sel.ForcedFormat
	}

	id, err := resource.ResolveOne(text)
	if err != nil {
		return NoKindName{Reason: err.Error()}, nil
	}

	if localPath == "" {
		localPath = filepath.Join(e.tmpDir, "local."+string(ext))

		err = os.WriteFile(localPath, []byte(text), 0o600)
		if err != nil {
			return nil, fmt.Errorf("write local file: %w", err)
		}
	}

	res, err := e.client.Get(ctx, id, string(format))
	if err != nil {
		// The CLI could not be launched at all.
		return GetFailed{Stderr: err.Error()}, nil
	}

	if kubectl.IsNotFound(res) {
		return NoClusterResource{ResourceName: id.Name}, nil
	}

	if !res.Succeeded() {
		return GetFailed{Stderr: res.Stderr}, nil
	}

	serverPath := filepath.Join(e.tmpDir, "server."+string(ext))

	err = os.WriteFile(serverPath, []byte(res.Stdout), 0o600)
	if err != nil {
		return nil, fmt.Errorf("write server file: %w", err)
	}

	err = e.presenter.Present(ctx, localPath, serverPath)
	if err != nil {
		return nil, err
	}

	return Succeeded{}, nil
}

// MaterializeText resolves the comparable text for a source, plus a
// persisted file path when one can be used directly. File sources carrying
// unsaved text are offered a save first; declining compares the on-disk
// content, dismissing the prompt aborts.
func (e *Engine) MaterializeText(ctx context.Context, source Source) (string, string, error) {
	switch s := source.(type) {
	case SelectionSource:
		return s.Text, "", nil

	case StdinSource:
		return s.Text, "", nil

	case FileSource:
		if s.Unsaved != "" && e.prompter != nil {
			save, err := e.prompter.Confirm(ctx, fmt.Sprintf("Save %s before comparing?", s.Path))
			if err != nil {
				return "", "", err
			}

			if save {
				err = os.WriteFile(s.Path, []byte(s.Unsaved), 0o600)
				if err != nil {
					return "", "", fmt.Errorf("save file: %w", err)
				}

				return s.Unsaved, s.Path, nil
			}
		} else if s.Unsaved != "" {
			return s.Unsaved, "", nil
		}

		data, err := os.ReadFile(s.Path)
		if err != nil {
			return "", "", fmt.Errorf("read file: %w", err)
		}

		return string(data), s.Path, nil
	}

	return "", "", nil
}

// ApplyDecision maps an outcome onto the confirmation shown by the apply
// command. ok is false for outcomes where applying makes no sense.
func ApplyDecision(o Outcome) (message string, create, ok bool) {
	switch v := o.(type) {
	case Succeeded:
		return "Apply this resource?", false, true

	case NoClusterResource:
		return fmt.Sprintf("Resource %s does not exist on the cluster. Create it?", v.ResourceName), true, true

	case NoKindName:
		// No comparison was possible, so the confirmation says so.
		return "Unable to compare with the cluster. Apply anyway?", false, true
	}

	return "", false, false
}

func detectFormat(text string) Format {
	if strings.HasPrefix(strings.TrimSpace(text), "{") {
		return FormatJSON
	}

	return FormatYAML
}
