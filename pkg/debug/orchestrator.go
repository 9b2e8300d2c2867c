// Package debug orchestrates the debug deployment workflow: build, push,
// run, readiness polling, debugger attachment, and optional exposure.
//
// Each stage gates the next; any failure aborts the remainder with a
// stage-specific error. Only the readiness poll retries, on a fixed
// interval bounded by a configurable elapsed time.
package debug

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	shellwords "github.com/mattn/go-shellwords"

	"github.com/macropower/kdev/pkg/execs"
	"github.com/macropower/kdev/pkg/kubectl"
	"github.com/macropower/kdev/pkg/log"
	"github.com/macropower/kdev/pkg/prompt"
	"github.com/macropower/kdev/pkg/resource"
)

const (
	// DebugSuffix names the disposable debug workload derived from an app
	// name. The name is always derivable, which makes cleanup stateless.
	DebugSuffix = "-debug"

	defaultDockerBin      = "docker"
	defaultDebuggerPort   = 2345
	defaultAppPort        = 8080
	defaultPollInterval   = time.Second
	defaultPollTimeout    = 5 * time.Minute
	defaultDebuggerCmd    = "dlv connect 127.0.0.1:{port}"
	podPhaseRunning       = "Running"
	accessDeniedSignature = `denied|unauthorized|authentication required`
)

var (
	ErrBuildFailed        = errors.New("image build failed")
	ErrPushFailed         = errors.New("image push failed")
	ErrPushAccessDenied   = errors.New("image push was denied: log in to the registry and check push permissions")
	ErrRunFailed          = errors.New("debug deployment failed to start")
	ErrPodNeverReady      = errors.New("debug pod did not reach Running phase within the readiness timeout")
	ErrExposeFailed       = errors.New("expose debug deployment failed")
	ErrNothingToCleanUp   = errors.New("nothing to clean up")
	ErrCleanupDeclined    = errors.New("cleanup declined")
	ErrAttachFailed       = errors.New("debugger attachment failed")
	errNotYetRunning      = errors.New("pod not yet running")
	accessDeniedPattern   = regexp.MustCompile(accessDeniedSignature)
	invalidNameCharacters = regexp.MustCompile(`[^a-z0-9-]+`)
)

// Orchestrator sequences the debug workflow.
type Orchestrator struct {
	invoker      execs.Invoker
	client       *kubectl.Client
	prompter     prompt.Prompter
	versions     VersionLookup
	dockerBin    string
	debuggerCmd  string
	debuggerPort int
	appPort      int
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewOrchestrator creates a new [Orchestrator].
func NewOrchestrator(invoker execs.Invoker, client *kubectl.Client, p prompt.Prompter, opts ...Opt) *Orchestrator {
	o := &Orchestrator{
		invoker:      invoker,
		client:       client,
		prompter:     p,
		versions:     NewGitVersionLookup(invoker),
		dockerBin:    defaultDockerBin,
		debuggerCmd:  defaultDebuggerCmd,
		debuggerPort: defaultDebuggerPort,
		appPort:      defaultAppPort,
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

type Opt func(o *Orchestrator)

// WithVersionLookup overrides the version collaborator.
func WithVersionLookup(v VersionLookup) Opt {
	return func(o *Orchestrator) { o.versions = v }
}

// WithDockerBinary overrides the container build tool.
func WithDockerBinary(bin string) Opt {
	return func(o *Orchestrator) {
		if bin != "" {
			o.dockerBin = bin
		}
	}
}

// WithDebugger sets the debugger command template. `{port}`, `{local}` and
// `{remote}` placeholders are substituted at attach time.
func WithDebugger(cmd string) Opt {
	return func(o *Orchestrator) {
		if cmd != "" {
			o.debuggerCmd = cmd
		}
	}
}

// WithPorts sets the forwarded debugger and companion app ports.
func WithPorts(debuggerPort, appPort int) Opt {
	return func(o *Orchestrator) {
		if debuggerPort > 0 {
			o.debuggerPort = debuggerPort
		}

		if appPort > 0 {
			o.appPort = appPort
		}
	}
}

// WithPollBounds sets the readiness poll interval and overall timeout.
func WithPollBounds(interval, timeout time.Duration) Opt {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.pollInterval = interval
		}

		if timeout > 0 {
			o.pollTimeout = timeout
		}
	}
}

// Session describes one started debug workflow.
type Session struct {
	DeploymentName string
	PodName        string
	Image          string
	DebuggerPort   int
	AppPort        int
}

// Debug runs the full workflow for the app in dir: build, push, run, wait
// for readiness, forward ports and attach the debugger. command is executed
// inside the debug container.
func (o *Orchestrator) Debug(ctx context.Context, dir, appName string, command []string, expose bool) (*Session, error) {
	logger := log.WithContext(ctx).With(slog.String("app", appName))

	name := SanitizeName(appName)
	version := o.versions.Version(ctx, dir)
	image := name + ":" + version

	logger.InfoContext(ctx, "building image", slog.String("image", image))

	err := o.buildAndPush(ctx, dir, image)
	if err != nil {
		return nil, err
	}

	deployment := name + DebugSuffix

	logger.InfoContext(ctx, "starting debug deployment", slog.String("deployment", deployment))

	res, err := o.client.Run(ctx, deployment, image, command...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}

	if !res.Succeeded() {
		return nil, fmt.Errorf("%w: %s", ErrRunFailed, strings.TrimSpace(res.Stderr))
	}

	podName, err := o.waitForRunningPod(ctx, deployment)
	if err != nil {
		return nil, err
	}

	session := &Session{
		DeploymentName: deployment,
		PodName:        podName,
		Image:          image,
		DebuggerPort:   o.debuggerPort,
		AppPort:        o.appPort,
	}

	if repo, tag := SplitImageTag(image); tag != "" {
		logger.DebugContext(ctx, "debug pod ready",
			slog.String("pod", podName),
			slog.String("repository", repo),
			slog.String("tag", tag),
		)
	}

	err = o.attach(ctx, dir, session)
	if err != nil {
		return nil, err
	}

	if expose {
		err = o.expose(ctx, deployment)
		if err != nil {
			return nil, err
		}
	}

	return session, nil
}

func (o *Orchestrator) buildAndPush(ctx context.Context, dir, image string) error {
	res, err := o.invoker.Exec(ctx, o.dockerBin, "build", "-t", image, dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	if !res.Succeeded() {
		return fmt.Errorf("%w: %s", ErrBuildFailed, strings.TrimSpace(res.Stderr))
	}

	res, err = o.invoker.Exec(ctx, o.dockerBin, "push", image)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}

	if !res.Succeeded() {
		if accessDeniedPattern.MatchString(res.Stderr) {
			return fmt.Errorf("%w: %s", ErrPushAccessDenied, strings.TrimSpace(res.Stderr))
		}

		return fmt.Errorf("%w: %s", ErrPushFailed, strings.TrimSpace(res.Stderr))
	}

	return nil
}

// waitForRunningPod polls the debug pod's phase on a fixed interval until it
// reaches Running, bounded by the configured timeout.
func (o *Orchestrator) waitForRunningPod(ctx context.Context, deployment string) (string, error) {
	var podName string

	policy := backoff.WithContext(
		backoff.NewConstantBackOff(o.pollInterval),
		ctx,
	)

	operation := func() error {
		res, err := o.client.Get(ctx, resource.Identifier{Kind: "pods"},
			`jsonpath={.items[0].metadata.name} {.items[0].status.phase}`,
			"-l", "run="+deployment)
		if err != nil {
			return backoff.Permanent(err)
		}

		if !res.Succeeded() {
			return errNotYetRunning
		}

		fields := strings.Fields(res.Stdout)
		if len(fields) < 2 || fields[1] != podPhaseRunning {
			return errNotYetRunning
		}

		podName = fields[0]

		return nil
	}

	err := backoff.Retry(operation, backoff.WithMaxRetries(policy, uint64(o.pollTimeout/o.pollInterval)))
	if err != nil {
		if errors.Is(err, errNotYetRunning) {
			return "", fmt.Errorf("%w (waited %s)", ErrPodNeverReady, o.pollTimeout)
		}

		return "", fmt.Errorf("wait for debug pod: %w", err)
	}

	return podName, nil
}

// attach forwards the debugger and app ports, then runs the configured
// debugger command against the forwarded debugger port.
func (o *Orchestrator) attach(ctx context.Context, dir string, session *Session) error {
	pfCtx, cancel := context.WithCancel(ctx)
	pfDone := make(chan struct{})

	defer func() {
		cancel()
		<-pfDone
	}()

	go func() {
		defer close(pfDone)

		// Holds the forward open for the lifetime of the attachment.
		_, err := o.client.PortForwardDetached(pfCtx, session.PodName,
			fmt.Sprintf("%d:%d", session.DebuggerPort, session.DebuggerPort),
			fmt.Sprintf("%d:%d", session.AppPort, session.AppPort),
		)
		if err != nil && pfCtx.Err() == nil {
			slog.WarnContext(pfCtx, "port-forward ended", slog.Any("error", err))
		}
	}()

	cmdLine := strings.NewReplacer(
		"{port}", strconv.Itoa(session.DebuggerPort),
		"{local}", dir,
		"{remote}", "/",
	).Replace(o.debuggerCmd)

	words, err := shellwords.Parse(cmdLine)
	if err != nil || len(words) == 0 {
		return fmt.Errorf("%w: parse debugger command %q", ErrAttachFailed, o.debuggerCmd)
	}

	code, err := o.invoker.ExecInteractive(ctx, words[0], words[1:]...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAttachFailed, err)
	}

	if code != 0 {
		return fmt.Errorf("%w: debugger exited with code %d", ErrAttachFailed, code)
	}

	return nil
}

func (o *Orchestrator) expose(ctx context.Context, deployment string) error {
	portText, err := o.prompter.Input(ctx, "Service port", strconv.Itoa(o.appPort))
	if err != nil {
		return err
	}

	port, err := strconv.Atoi(portText)
	if err != nil {
		return fmt.Errorf("%w: invalid port %q", ErrExposeFailed, portText)
	}

	res, err := o.client.Expose(ctx, resource.Identifier{Kind: "deployment", Name: deployment}, port, "LoadBalancer")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExposeFailed, err)
	}

	if !res.Succeeded() {
		return fmt.Errorf("%w: %s", ErrExposeFailed, strings.TrimSpace(res.Stderr))
	}

	return nil
}

// CleanupResult reports which debug objects were deleted.
type CleanupResult struct {
	DeploymentDeleted bool
	ServiceDeleted    bool
}

// RemoveDebug deletes the `<app>-debug` deployment and service, whichever
// exist, after confirmation. It is idempotent: when neither exists it
// reports [ErrNothingToCleanUp] without issuing any delete.
func (o *Orchestrator) RemoveDebug(ctx context.Context, appName string) (*CleanupResult, error) {
	deployment := SanitizeName(appName) + DebugSuffix

	deploymentExists, err := o.exists(ctx, "deployment", deployment)
	if err != nil {
		return nil, err
	}

	serviceExists, err := o.exists(ctx, "service", deployment)
	if err != nil {
		return nil, err
	}

	if !deploymentExists && !serviceExists {
		return nil, fmt.Errorf("%w for %s", ErrNothingToCleanUp, deployment)
	}

	confirmed, err := o.prompter.Confirm(ctx, fmt.Sprintf("Delete debug resources for %s?", deployment))
	if err != nil {
		return nil, err
	}

	if !confirmed {
		return nil, ErrCleanupDeclined
	}

	result := &CleanupResult{}

	if deploymentExists {
		err = o.deleteObject(ctx, "deployment", deployment)
		if err != nil {
			return result, err
		}

		result.DeploymentDeleted = true
	}

	if serviceExists {
		err = o.deleteObject(ctx, "service", deployment)
		if err != nil {
			return result, err
		}

		result.ServiceDeleted = true
	}

	return result, nil
}

func (o *Orchestrator) exists(ctx context.Context, kind, name string) (bool, error) {
	res, err := o.client.Get(ctx, resource.Identifier{Kind: kind, Name: name}, "")
	if err != nil {
		return false, err
	}

	if kubectl.IsNotFound(res) {
		return false, nil
	}

	if !res.Succeeded() {
		return false, fmt.Errorf("check %s/%s: %s", kind, name, strings.TrimSpace(res.Stderr))
	}

	return true, nil
}

func (o *Orchestrator) deleteObject(ctx context.Context, kind, name string) error {
	res, err := o.client.Delete(ctx, resource.Identifier{Kind: kind, Name: name}, false)
	if err != nil {
		return err
	}

	if !res.Succeeded() {
		return fmt.Errorf("delete %s/%s: %s", kind, name, strings.TrimSpace(res.Stderr))
	}

	return nil
}

// SanitizeName lowercases a project name and collapses characters that are
// not valid in cluster object names.
func SanitizeName(name string) string {
	name = strings.ToLower(name)
	name = invalidNameCharacters.ReplaceAllString(name, "-")

	return strings.Trim(name, "-")
}
