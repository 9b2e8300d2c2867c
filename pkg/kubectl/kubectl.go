// Package kubectl wraps the external `kubectl` binary behind typed command
// templates.
//
// Every method issues exactly one invocation and reports its captured
// result. Exit code zero is the only success signal; callers classify
// nonzero exits by inspecting stderr. A launch failure (the binary cannot
// be spawned) is a Go error, distinct from a command that ran and failed.
package kubectl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/macropower/kdev/pkg/execs"
	"github.com/macropower/kdev/pkg/resource"
)

const defaultBinary = "kubectl"

// Client issues commands to the cluster CLI.
type Client struct {
	invoker        execs.Invoker
	bin            string
	namespace      string
	translatePaths bool
}

// NewClient creates a new [Client] around the given invoker.
func NewClient(invoker execs.Invoker, opts ...ClientOpt) *Client {
	c := &Client{
		invoker: invoker,
		bin:     defaultBinary,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

type ClientOpt func(c *Client)

// WithBinary overrides the kubectl binary path.
func WithBinary(path string) ClientOpt {
	return func(c *Client) {
		if path != "" {
			c.bin = path
		}
	}
}

// WithNamespace sets a default namespace inserted into every namespaced
// command that does not carry its own.
func WithNamespace(ns string) ClientOpt {
	return func(c *Client) {
		c.namespace = ns
	}
}

// WithHostPathTranslation rewrites local file paths into POSIX-style
// mounted paths before passing them to the CLI, for hosts where the CLI
// runs inside a mount of the local filesystem.
func WithHostPathTranslation() ClientOpt {
	return func(c *Client) {
		c.translatePaths = true
	}
}

// Invoke runs kubectl with the given arguments verbatim.
func (c *Client) Invoke(ctx context.Context, args ...string) (*execs.Result, error) {
	res, err := c.invoker.Exec(ctx, c.bin, args...)
	if err != nil {
		if errors.Is(err, execs.ErrLaunch) {
			return nil, fmt.Errorf("unable to call %s: %w", c.bin, err)
		}

		return nil, err
	}

	return res, nil
}

// Get fetches a resource in the given output format. Name may be empty to
// list all resources of the kind.
func (c *Client) Get(ctx context.Context, id resource.Identifier, output string, extra ...string) (*execs.Result, error) {
	args := []string{"get"}
	if id.Name != "" {
		args = append(args, id.String())
	} else {
		args = append(args, id.Kind)
	}

	if output != "" {
		args = append(args, "-o", output)
	}

	args = c.withNamespace(args, id.Namespace)
	args = append(args, extra...)

	return c.Invoke(ctx, args...)
}

// Describe runs `kubectl describe` for the resource.
func (c *Client) Describe(ctx context.Context, id resource.Identifier) (*execs.Result, error) {
	args := c.withNamespace([]string{"describe", id.String()}, id.Namespace)

	return c.Invoke(ctx, args...)
}

// Delete removes the resource. With now set, grace is skipped via `--now`.
func (c *Client) Delete(ctx context.Context, id resource.Identifier, now bool) (*execs.Result, error) {
	args := c.withNamespace([]string{"delete", id.String()}, id.Namespace)
	if now {
		args = append(args, "--now")
	}

	return c.Invoke(ctx, args...)
}

// ApplyFile applies the manifest file at path.
func (c *Client) ApplyFile(ctx context.Context, path string) (*execs.Result, error) {
	return c.Invoke(ctx, "apply", "-f", c.TranslatePath(path))
}

// CreateFile creates resources from the manifest file at path.
func (c *Client) CreateFile(ctx context.Context, path string) (*execs.Result, error) {
	return c.Invoke(ctx, "create", "-f", c.TranslatePath(path))
}

// ApplyStdin applies manifest text piped via stdin.
func (c *Client) ApplyStdin(ctx context.Context, manifest string) (*execs.Result, error) {
	return c.invokeWithStdin(ctx, manifest, "apply", "-f", "-")
}

// CreateStdin creates resources from manifest text piped via stdin.
func (c *Client) CreateStdin(ctx context.Context, manifest string) (*execs.Result, error) {
	return c.invokeWithStdin(ctx, manifest, "create", "-f", "-")
}

func (c *Client) invokeWithStdin(ctx context.Context, stdin string, args ...string) (*execs.Result, error) {
	res, err := c.invoker.ExecWithStdin(ctx, []byte(stdin), c.bin, args...)
	if err != nil {
		if errors.Is(err, execs.ErrLaunch) {
			return nil, fmt.Errorf("unable to call %s: %w", c.bin, err)
		}

		return nil, err
	}

	return res, nil
}

// Run creates a deployment running the image, optionally with a command to
// execute inside the container.
func (c *Client) Run(ctx context.Context, name, image string, command ...string) (*execs.Result, error) {
	args := []string{"run", name, "--image=" + image}
	if len(command) > 0 {
		args = append(args, "--")
		args = append(args, command...)
	}

	return c.Invoke(ctx, args...)
}

// Exec runs a command inside the given pod and container, attached to the
// caller's terminal.
func (c *Client) Exec(ctx context.Context, pod, container string, command ...string) (int, error) {
	args := []string{"exec", "-it", pod}
	if container != "" {
		args = append(args, "-c", container)
	}

	args = append(args, "--")
	args = append(args, command...)

	code, err := c.invoker.ExecInteractive(ctx, c.bin, args...)
	if err != nil {
		if errors.Is(err, execs.ErrLaunch) {
			return 0, fmt.Errorf("unable to call %s: %w", c.bin, err)
		}

		return 0, err
	}

	return code, nil
}

// Logs fetches logs for the given pod and container.
func (c *Client) Logs(ctx context.Context, pod, container string) (*execs.Result, error) {
	args := []string{"logs", pod}
	if container != "" {
		args = append(args, "-c", container)
	}

	return c.Invoke(ctx, args...)
}

// Expose exposes the resource as a service. Port and service type are
// optional.
func (c *Client) Expose(ctx context.Context, id resource.Identifier, port int, serviceType string) (*execs.Result, error) {
	args := []string{"expose", id.Kind, id.Name}
	if port > 0 {
		args = append(args, "--port="+strconv.Itoa(port))
	}

	if serviceType != "" {
		args = append(args, "--type="+serviceType)
	}

	args = c.withNamespace(args, id.Namespace)

	return c.Invoke(ctx, args...)
}

// Scale sets the replica count of the resource.
func (c *Client) Scale(ctx context.Context, id resource.Identifier, replicas int) (*execs.Result, error) {
	args := []string{"scale", "--replicas=" + strconv.Itoa(replicas), id.String()}
	args = c.withNamespace(args, id.Namespace)

	return c.Invoke(ctx, args...)
}

// PortForward forwards local ports to the pod, attached to the caller's
// terminal, blocking until the forward ends. Ports are `local:remote`
// pairs.
func (c *Client) PortForward(ctx context.Context, pod string, ports ...string) (int, error) {
	args := c.withNamespace(append([]string{"port-forward", pod}, ports...), "")

	code, err := c.invoker.ExecInteractive(ctx, c.bin, args...)
	if err != nil {
		if errors.Is(err, execs.ErrLaunch) {
			return 0, fmt.Errorf("unable to call %s: %w", c.bin, err)
		}

		return 0, err
	}

	return code, nil
}

// PortForwardDetached forwards local ports to the pod without attaching the
// caller's terminal, blocking until the forward ends or ctx is canceled.
func (c *Client) PortForwardDetached(ctx context.Context, pod string, ports ...string) (*execs.Result, error) {
	args := c.withNamespace(append([]string{"port-forward", pod}, ports...), "")

	return c.Invoke(ctx, args...)
}

// UseContext switches the active kubeconfig context.
func (c *Client) UseContext(ctx context.Context, name string) (*execs.Result, error) {
	return c.Invoke(ctx, "config", "use-context", name)
}

// CreateJobFromCronJob creates a job from an existing cron job.
func (c *Client) CreateJobFromCronJob(ctx context.Context, jobName, cronJobName, namespace string) (*execs.Result, error) {
	args := []string{"create", "job", jobName}
	args = c.withNamespace(args, namespace)
	args = append(args, "--from=cronjob/"+cronJobName)

	return c.Invoke(ctx, args...)
}

// Explain runs `kubectl explain` for the given field path.
func (c *Client) Explain(ctx context.Context, field string) (*execs.Result, error) {
	return c.Invoke(ctx, "explain", field)
}

// TranslatePath rewrites a drive-lettered path into its POSIX mount form,
// e.g. `C:\Users\me` becomes `/mnt/c/Users/me`. Paths without a drive
// letter, or clients without translation enabled, pass through unchanged.
func (c *Client) TranslatePath(p string) string {
	if !c.translatePaths {
		return p
	}

	if len(p) < 2 || p[1] != ':' {
		return p
	}

	drive := strings.ToLower(p[:1])
	rest := strings.ReplaceAll(p[2:], `\`, "/")

	return "/mnt/" + drive + rest
}

func (c *Client) withNamespace(args []string, ns string) []string {
	if ns == "" {
		ns = c.namespace
	}

	if ns != "" {
		return append(args, "--namespace", ns)
	}

	return args
}

// IsNotFound reports whether the result is a nonzero exit caused by the
// resource not existing on the cluster.
func IsNotFound(res *execs.Result) bool {
	return res != nil && res.ExitCode != 0 && strings.Contains(res.Stderr, "NotFound")
}
