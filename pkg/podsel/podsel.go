// Package podsel disambiguates target pods and containers.
//
// Selection is pure: it queries the cluster and prompts the user, but never
// mutates anything. Exactly one candidate is auto-selected without a
// prompt; the app-scoped query falls back to a single cluster-wide query
// when configured to.
package podsel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"

	"github.com/macropower/kdev/pkg/kubectl"
	"github.com/macropower/kdev/pkg/prompt"
	"github.com/macropower/kdev/pkg/resource"
)

// Scope selects which pods are candidates.
type Scope int

const (
	// ScopeApp restricts candidates to pods labeled `run=<app>`.
	ScopeApp Scope = iota
	// ScopeAll considers every pod.
	ScopeAll
)

// Fallback is the behavior when an app-scoped query finds nothing.
type Fallback int

const (
	// FallbackNone fails immediately with a scope-specific message.
	FallbackNone Fallback = iota
	// FallbackAnyPod retries exactly once with [ScopeAll] before giving up.
	FallbackAnyPod
)

var (
	ErrNoAppPods     = errors.New("no pods found for the app")
	ErrNoClusterPods = errors.New("no pods found on the cluster")
)

// Selector resolves a target pod and container.
type Selector struct {
	client   *kubectl.Client
	prompter prompt.Prompter
	appName  string
}

// NewSelector creates a new [Selector]. appName scopes [ScopeApp] queries
// via the `run=<appName>` label selector.
func NewSelector(client *kubectl.Client, p prompt.Prompter, appName string) *Selector {
	return &Selector{
		client:   client,
		prompter: p,
		appName:  appName,
	}
}

// SelectPod resolves the target pod. Exactly one candidate is returned
// without prompting; multiple candidates are offered interactively labeled
// `namespace/name`. A dismissed prompt propagates [prompt.ErrCanceled].
func (s *Selector) SelectPod(ctx context.Context, scope Scope, fallback Fallback) (*corev1.Pod, error) {
	pods, err := s.queryPods(ctx, scope)
	if err != nil {
		return nil, err
	}

	if len(pods) == 0 && scope == ScopeApp && fallback == FallbackAnyPod {
		pods, err = s.queryPods(ctx, ScopeAll)
		if err != nil {
			return nil, err
		}

		scope = ScopeAll
	}

	switch {
	case len(pods) == 0 && scope == ScopeApp:
		return nil, fmt.Errorf("%w %q", ErrNoAppPods, s.appName)

	case len(pods) == 0:
		return nil, ErrNoClusterPods

	case len(pods) == 1:
		return &pods[0], nil
	}

	opts := make([]prompt.Option, 0, len(pods))

	for _, pod := range pods {
		ns := pod.Namespace
		if ns == "" {
			ns = corev1.NamespaceDefault
		}

		label := ns + "/" + pod.Name
		opts = append(opts, prompt.Option{Label: label, Value: label})
	}

	chosen, err := s.prompter.Select(ctx, "Pod", opts)
	if err != nil {
		return nil, err
	}

	for i, pod := range pods {
		ns := pod.Namespace
		if ns == "" {
			ns = corev1.NamespaceDefault
		}

		if ns+"/"+pod.Name == chosen {
			return &pods[i], nil
		}
	}

	return nil, prompt.ErrCanceled
}

// SelectContainer resolves the target container within pod, applying the
// same exactly-one-auto / many-interactive rule. When the pod carries no
// container list, it is fetched with a templated field query.
func (s *Selector) SelectContainer(ctx context.Context, pod *corev1.Pod) (*corev1.Container, error) {
	containers := pod.Spec.Containers

	if len(containers) == 0 {
		var err error

		containers, err = s.queryContainers(ctx, pod)
		if err != nil {
			return nil, err
		}
	}

	switch len(containers) {
	case 0:
		return nil, fmt.Errorf("pod %q has no containers", pod.Name)

	case 1:
		return &containers[0], nil
	}

	opts := make([]prompt.Option, 0, len(containers))
	for _, c := range containers {
		opts = append(opts, prompt.Option{
			Label:       c.Name,
			Value:       c.Name,
			Description: c.Image,
		})
	}

	chosen, err := s.prompter.Select(ctx, "Container", opts)
	if err != nil {
		return nil, err
	}

	for i, c := range containers {
		if c.Name == chosen {
			return &containers[i], nil
		}
	}

	return nil, prompt.ErrCanceled
}

func (s *Selector) queryPods(ctx context.Context, scope Scope) ([]corev1.Pod, error) {
	var extra []string
	if scope == ScopeApp {
		extra = append(extra, "-l", "run="+s.appName)
	}

	res, err := s.client.Get(ctx, resource.Identifier{Kind: "pods"}, "json", extra...)
	if err != nil {
		return nil, err
	}

	if !res.Succeeded() {
		return nil, fmt.Errorf("get pods: %s", strings.TrimSpace(res.Stderr))
	}

	var list corev1.PodList

	err = yaml.Unmarshal([]byte(res.Stdout), &list)
	if err != nil {
		return nil, fmt.Errorf("decode pod list: %w", err)
	}

	return list.Items, nil
}

// queryContainers fetches name/image pairs for the pod's containers.
func (s *Selector) queryContainers(ctx context.Context, pod *corev1.Pod) ([]corev1.Container, error) {
	id := resource.Identifier{Kind: "pod", Name: pod.Name, Namespace: pod.Namespace}

	res, err := s.client.Get(ctx, id,
		`jsonpath={range .spec.containers[*]}{.name} {.image}{"\n"}{end}`)
	if err != nil {
		return nil, err
	}

	if !res.Succeeded() {
		return nil, fmt.Errorf("get containers for pod %q: %s", pod.Name, strings.TrimSpace(res.Stderr))
	}

	var containers []corev1.Container

	for line := range strings.Lines(res.Stdout) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		c := corev1.Container{Name: fields[0]}
		if len(fields) > 1 {
			c.Image = fields[1]
		}

		containers = append(containers, c)
	}

	return containers, nil
}
