package debug_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/kdev/pkg/debug"
	"github.com/macropower/kdev/pkg/execs/execstest"
	"github.com/macropower/kdev/pkg/kubectl"
	"github.com/macropower/kdev/pkg/prompt/prompttest"
)

func newOrchestrator(invoker *execstest.Invoker, prompter *prompttest.Prompter, opts ...debug.Opt) *debug.Orchestrator {
	opts = append([]debug.Opt{
		debug.WithPollBounds(time.Millisecond, 10*time.Millisecond),
	}, opts...)

	return debug.NewOrchestrator(invoker, kubectl.NewClient(invoker), prompter, opts...)
}

func TestOrchestrator_Debug(t *testing.T) {
	t.Parallel()

	t.Run("attaches once after one retry delay", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("kubectl get pods", execstest.Response{Stdout: "myapp-debug-abc Pending"})
		invoker.Script("kubectl get pods", execstest.Response{Stdout: "myapp-debug-abc Running"})

		o := newOrchestrator(invoker, &prompttest.Prompter{})

		session, err := o.Debug(t.Context(), ".", "myapp", nil, false)
		require.NoError(t, err)
		assert.Equal(t, "myapp-debug", session.DeploymentName)
		assert.Equal(t, "myapp-debug-abc", session.PodName)

		assert.Len(t, invoker.CommandsWithPrefix("kubectl get pods"), 2)
		assert.Len(t, invoker.CommandsWithPrefix("dlv connect"), 1)
	})

	t.Run("port-forward carries the client namespace", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("kubectl get pods", execstest.Response{Stdout: "myapp-debug-abc Running"})

		client := kubectl.NewClient(invoker, kubectl.WithNamespace("dev"))
		o := debug.NewOrchestrator(invoker, client, &prompttest.Prompter{},
			debug.WithPollBounds(time.Millisecond, 10*time.Millisecond),
		)

		_, err := o.Debug(t.Context(), ".", "myapp", nil, false)
		require.NoError(t, err)

		forwards := invoker.CommandsWithPrefix("kubectl port-forward")
		require.Len(t, forwards, 1)
		assert.Equal(t, "kubectl port-forward myapp-debug-abc 2345:2345 8080:8080 --namespace dev", forwards[0])
	})

	t.Run("stages run in order", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("kubectl get pods", execstest.Response{Stdout: "myapp-debug-abc Running"})

		o := newOrchestrator(invoker, &prompttest.Prompter{})

		session, err := o.Debug(t.Context(), ".", "My App", []string{"/bin/app"}, false)
		require.NoError(t, err)
		assert.Equal(t, "my-app:latest", session.Image)

		var build, push, run int

		for i, cmd := range invoker.Commands {
			switch {
			case cmd == "docker build -t my-app:latest .":
				build = i
			case cmd == "docker push my-app:latest":
				push = i
			case cmd == "kubectl run my-app-debug --image=my-app:latest -- /bin/app":
				run = i
			}
		}

		assert.Less(t, build, push)
		assert.Less(t, push, run)
	})

	t.Run("build failure aborts before push", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("docker build", execstest.Response{
			Exit:   1,
			Stderr: "missing Dockerfile",
		})

		o := newOrchestrator(invoker, &prompttest.Prompter{})

		_, err := o.Debug(t.Context(), ".", "myapp", nil, false)
		require.ErrorIs(t, err, debug.ErrBuildFailed)
		assert.Empty(t, invoker.CommandsWithPrefix("docker push"))
	})

	t.Run("denied push gets the remediation message", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("docker push", execstest.Response{
			Exit:   1,
			Stderr: "denied: requested access to the resource is denied",
		})

		o := newOrchestrator(invoker, &prompttest.Prompter{})

		_, err := o.Debug(t.Context(), ".", "myapp", nil, false)
		require.ErrorIs(t, err, debug.ErrPushAccessDenied)
	})

	t.Run("other push failures stay generic", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("docker push", execstest.Response{
			Exit:   1,
			Stderr: "connection reset by peer",
		})

		o := newOrchestrator(invoker, &prompttest.Prompter{})

		_, err := o.Debug(t.Context(), ".", "myapp", nil, false)
		require.ErrorIs(t, err, debug.ErrPushFailed)
		assert.False(t, errors.Is(err, debug.ErrPushAccessDenied))
	})

	t.Run("pod that never runs exhausts the poll bound", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		// More Pending responses than the 10ms bound can consume.
		for range 20 {
			invoker.Script("kubectl get pods", execstest.Response{Stdout: "myapp-debug-abc Pending"})
		}

		o := newOrchestrator(invoker, &prompttest.Prompter{})

		_, err := o.Debug(t.Context(), ".", "myapp", nil, false)
		require.ErrorIs(t, err, debug.ErrPodNeverReady)
	})
}

func TestOrchestrator_RemoveDebug(t *testing.T) {
	t.Parallel()

	notFound := execstest.Response{
		Exit:   1,
		Stderr: `Error from server (NotFound): deployments.apps "myapp-debug" not found`,
	}

	t.Run("nothing to clean up issues no deletes", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("kubectl get deployment/myapp-debug", notFound)
		invoker.Script("kubectl get service/myapp-debug", notFound)

		prompter := &prompttest.Prompter{ConfirmValue: true}
		o := newOrchestrator(invoker, prompter)

		_, err := o.RemoveDebug(t.Context(), "myapp")
		require.ErrorIs(t, err, debug.ErrNothingToCleanUp)
		assert.Empty(t, invoker.CommandsWithPrefix("kubectl delete"))
		assert.Zero(t, prompter.ConfirmCalls)
	})

	t.Run("only the service exists deletes only the service", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("kubectl get deployment/myapp-debug", notFound)

		prompter := &prompttest.Prompter{ConfirmValue: true}
		o := newOrchestrator(invoker, prompter)

		result, err := o.RemoveDebug(t.Context(), "myapp")
		require.NoError(t, err)
		assert.False(t, result.DeploymentDeleted)
		assert.True(t, result.ServiceDeleted)

		deletes := invoker.CommandsWithPrefix("kubectl delete")
		require.Len(t, deletes, 1)
		assert.Equal(t, "kubectl delete service/myapp-debug", deletes[0])
	})

	t.Run("both exist deletes both", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()

		prompter := &prompttest.Prompter{ConfirmValue: true}
		o := newOrchestrator(invoker, prompter)

		result, err := o.RemoveDebug(t.Context(), "myapp")
		require.NoError(t, err)
		assert.True(t, result.DeploymentDeleted)
		assert.True(t, result.ServiceDeleted)
		assert.Len(t, invoker.CommandsWithPrefix("kubectl delete"), 2)
	})

	t.Run("declined confirmation deletes nothing", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()

		prompter := &prompttest.Prompter{ConfirmValue: false}
		o := newOrchestrator(invoker, prompter)

		_, err := o.RemoveDebug(t.Context(), "myapp")
		require.ErrorIs(t, err, debug.ErrCleanupDeclined)
		assert.Empty(t, invoker.CommandsWithPrefix("kubectl delete"))
	})
}

func TestGitVersionLookup(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		resp execstest.Response
		want string
	}{
		"describe output becomes the version": {
			resp: execstest.Response{Stdout: "v1.2.3-dirty\n"},
			want: "v1.2.3-dirty",
		},
		"not a repository falls back to latest": {
			resp: execstest.Response{Exit: 128, Stderr: "fatal: not a git repository"},
			want: debug.VersionLatest,
		},
		"empty output falls back to latest": {
			resp: execstest.Response{},
			want: debug.VersionLatest,
		},
		"launch failure yields error": {
			resp: execstest.Response{Err: errors.New("exec: git: not found")},
			want: debug.VersionError,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			invoker := execstest.NewInvoker()
			invoker.Script("git", tc.resp)

			lookup := debug.NewGitVersionLookup(invoker)
			assert.Equal(t, tc.want, lookup.Version(t.Context(), "."))
		})
	}
}

func TestSplitImageTag(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		image    string
		wantRepo string
		wantTag  string
	}{
		"tagged image": {
			image:    "myapp:v1",
			wantRepo: "myapp",
			wantTag:  "v1",
		},
		"untagged image": {
			image:    "myapp",
			wantRepo: "myapp",
		},
		"registry port is not a tag": {
			image:    "localhost:5000/myapp",
			wantRepo: "localhost:5000/myapp",
		},
		"registry port with tag": {
			image:    "localhost:5000/myapp:v1",
			wantRepo: "localhost:5000/myapp",
			wantTag:  "v1",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo, tag := debug.SplitImageTag(tc.image)
			assert.Equal(t, tc.wantRepo, repo)
			assert.Equal(t, tc.wantTag, tag)
		})
	}
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   string
		want string
	}{
		"already valid":     {in: "myapp", want: "myapp"},
		"mixed case":        {in: "MyApp", want: "myapp"},
		"spaces collapse":   {in: "My App", want: "my-app"},
		"symbols collapse":  {in: "my_app!v2", want: "my-app-v2"},
		"edges are trimmed": {in: " my app ", want: "my-app"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, debug.SanitizeName(tc.in))
		})
	}
}
