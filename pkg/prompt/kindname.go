package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/macropower/kdev/pkg/kubectl"
	"github.com/macropower/kdev/pkg/resource"
)

// wellKnownKinds are offered when prompting for a kind. Any other kind can
// still be entered as free text.
var wellKnownKinds = []string{
	"deployment",
	"pod",
	"service",
	"configmap",
	"secret",
	"job",
	"cronjob",
	"statefulset",
	"daemonset",
	"ingress",
	"namespace",
	"node",
}

const otherKind = "(other)"

// KindNamePrompter interactively resolves a resource identifier when static
// resolution from document text fails. It queries the cluster for existing
// names of the chosen kind before falling back to free-text input.
type KindNamePrompter struct {
	prompter Prompter
	client   *kubectl.Client
}

// NewKindNamePrompter creates a new [KindNamePrompter].
func NewKindNamePrompter(p Prompter, client *kubectl.Client) *KindNamePrompter {
	return &KindNamePrompter{
		prompter: p,
		client:   client,
	}
}

// Resolve asks for a kind, then for a name of that kind. Existing names are
// offered as a selection when the cluster query yields any; otherwise the
// name is free text. Cancellation at either step propagates [ErrCanceled].
func (kp *KindNamePrompter) Resolve(ctx context.Context) (resource.Identifier, error) {
	kind, err := kp.resolveKind(ctx)
	if err != nil {
		return resource.Identifier{}, err
	}

	name, err := kp.resolveName(ctx, kind)
	if err != nil {
		return resource.Identifier{}, err
	}

	return resource.Identifier{
		Kind: strings.ToLower(kind),
		Name: name,
	}, nil
}

func (kp *KindNamePrompter) resolveKind(ctx context.Context) (string, error) {
	opts := make([]Option, 0, len(wellKnownKinds)+1)
	for _, k := range wellKnownKinds {
		opts = append(opts, Option{Label: k, Value: k})
	}

	opts = append(opts, Option{Label: otherKind, Value: otherKind})

	kind, err := kp.prompter.Select(ctx, "Resource kind", opts)
	if err != nil {
		return "", err
	}

	if kind == otherKind {
		kind, err = kp.prompter.Input(ctx, "Resource kind", "deployment")
		if err != nil {
			return "", err
		}
	}

	return kind, nil
}

func (kp *KindNamePrompter) resolveName(ctx context.Context, kind string) (string, error) {
	names := kp.existingNames(ctx, kind)
	if len(names) == 0 {
		// No placeholder to fall back on, so an empty submission re-prompts.
		for {
			name, err := kp.prompter.Input(ctx, fmt.Sprintf("Name of the %s", kind), "")
			if err != nil {
				return "", err
			}

			if name != "" {
				return name, nil
			}
		}
	}

	opts := make([]Option, 0, len(names))
	for _, n := range names {
		opts = append(opts, Option{Label: n, Value: n})
	}

	return kp.prompter.Select(ctx, fmt.Sprintf("Name of the %s", kind), opts)
}

// existingNames queries the cluster for names of the kind. Failures are not
// fatal here, they just downgrade the prompt to free-text input.
func (kp *KindNamePrompter) existingNames(ctx context.Context, kind string) []string {
	res, err := kp.client.Get(ctx, resource.Identifier{Kind: kind}, "name")
	if err != nil || !res.Succeeded() {
		return nil
	}

	var names []string

	for line := range strings.Lines(res.Stdout) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Lines are `kind.group/name`.
		if idx := strings.LastIndex(line, "/"); idx >= 0 {
			line = line[idx+1:]
		}

		if line != "" {
			names = append(names, line)
		}
	}

	return names
}
