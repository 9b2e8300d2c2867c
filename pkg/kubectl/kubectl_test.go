package kubectl_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/kdev/pkg/execs"
	"github.com/macropower/kdev/pkg/execs/execstest"
	"github.com/macropower/kdev/pkg/kubectl"
	"github.com/macropower/kdev/pkg/resource"
)

func TestClient_CommandTemplates(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		run  func(t *testing.T, c *kubectl.Client)
		want string
	}{
		"get with name and output": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.Get(t.Context(), resource.Identifier{Kind: "deployment", Name: "web"}, "json")
				require.NoError(t, err)
			},
			want: "kubectl get deployment/web -o json",
		},
		"get inserts namespace when known": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.Get(t.Context(), resource.Identifier{Kind: "pod", Name: "p1", Namespace: "staging"}, "yaml")
				require.NoError(t, err)
			},
			want: "kubectl get pod/p1 -o yaml --namespace staging",
		},
		"get without name lists the kind": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.Get(t.Context(), resource.Identifier{Kind: "pods"}, "wide")
				require.NoError(t, err)
			},
			want: "kubectl get pods -o wide",
		},
		"describe": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.Describe(t.Context(), resource.Identifier{Kind: "service", Name: "svc", Namespace: "prod"})
				require.NoError(t, err)
			},
			want: "kubectl describe service/svc --namespace prod",
		},
		"delete with now": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.Delete(t.Context(), resource.Identifier{Kind: "pod", Name: "p1"}, true)
				require.NoError(t, err)
			},
			want: "kubectl delete pod/p1 --now",
		},
		"apply file": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.ApplyFile(t.Context(), "/tmp/local.yaml")
				require.NoError(t, err)
			},
			want: "kubectl apply -f /tmp/local.yaml",
		},
		"apply stdin": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.ApplyStdin(t.Context(), "kind: Pod")
				require.NoError(t, err)
			},
			want: "kubectl apply -f -",
		},
		"create stdin": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.CreateStdin(t.Context(), "kind: Pod")
				require.NoError(t, err)
			},
			want: "kubectl create -f -",
		},
		"run with command": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.Run(t.Context(), "app-debug", "app:latest", "/bin/app", "--debug")
				require.NoError(t, err)
			},
			want: "kubectl run app-debug --image=app:latest -- /bin/app --debug",
		},
		"expose with port and type": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.Expose(t.Context(), resource.Identifier{Kind: "deployment", Name: "app-debug"}, 8080, "LoadBalancer")
				require.NoError(t, err)
			},
			want: "kubectl expose deployment app-debug --port=8080 --type=LoadBalancer",
		},
		"scale": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.Scale(t.Context(), resource.Identifier{Kind: "deployment", Name: "web"}, 3)
				require.NoError(t, err)
			},
			want: "kubectl scale --replicas=3 deployment/web",
		},
		"detached port-forward": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.PortForwardDetached(t.Context(), "app-debug-abc", "2345:2345", "8080:8080")
				require.NoError(t, err)
			},
			want: "kubectl port-forward app-debug-abc 2345:2345 8080:8080",
		},
		"use context": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.UseContext(t.Context(), "minikube")
				require.NoError(t, err)
			},
			want: "kubectl config use-context minikube",
		},
		"create job from cron job": {
			run: func(t *testing.T, c *kubectl.Client) {
				t.Helper()
				_, err := c.CreateJobFromCronJob(t.Context(), "report-now", "report", "batch")
				require.NoError(t, err)
			},
			want: "kubectl create job report-now --namespace batch --from=cronjob/report",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			invoker := execstest.NewInvoker()
			c := kubectl.NewClient(invoker)

			tc.run(t, c)

			require.Len(t, invoker.Commands, 1)
			assert.Equal(t, tc.want, invoker.Commands[0])
		})
	}
}

func TestClient_DefaultNamespace(t *testing.T) {
	t.Parallel()

	invoker := execstest.NewInvoker()
	c := kubectl.NewClient(invoker, kubectl.WithNamespace("dev"))

	_, err := c.Get(t.Context(), resource.Identifier{Kind: "pod", Name: "p1"}, "json")
	require.NoError(t, err)
	assert.Equal(t, "kubectl get pod/p1 -o json --namespace dev", invoker.Commands[0])

	// An identifier namespace wins over the client default.
	_, err = c.Get(t.Context(), resource.Identifier{Kind: "pod", Name: "p1", Namespace: "other"}, "json")
	require.NoError(t, err)
	assert.Equal(t, "kubectl get pod/p1 -o json --namespace other", invoker.Commands[1])

	_, err = c.PortForwardDetached(t.Context(), "app-debug-abc", "2345:2345")
	require.NoError(t, err)
	assert.Equal(t, "kubectl port-forward app-debug-abc 2345:2345 --namespace dev", invoker.Commands[2])
}

func TestClient_LaunchFailure(t *testing.T) {
	t.Parallel()

	invoker := execstest.NewInvoker()
	invoker.Script("kubectl", execstest.Response{
		Err: execs.ErrLaunch,
	})

	c := kubectl.NewClient(invoker)

	_, err := c.Get(t.Context(), resource.Identifier{Kind: "pod", Name: "p1"}, "json")
	require.Error(t, err)
	assert.ErrorIs(t, err, execs.ErrLaunch)
	assert.Contains(t, err.Error(), "unable to call kubectl")
}

func TestClient_TranslatePath(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		path    string
		want    string
		enabled bool
	}{
		"drive letter path": {
			enabled: true,
			path:    `C:\Users\dev\app.yaml`,
			want:    "/mnt/c/Users/dev/app.yaml",
		},
		"lowercases the drive letter": {
			enabled: true,
			path:    `D:\data`,
			want:    "/mnt/d/data",
		},
		"posix path untouched": {
			enabled: true,
			path:    "/tmp/local.yaml",
			want:    "/tmp/local.yaml",
		},
		"translation disabled": {
			path: `C:\Users\dev\app.yaml`,
			want: `C:\Users\dev\app.yaml`,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			opts := []kubectl.ClientOpt{}
			if tc.enabled {
				opts = append(opts, kubectl.WithHostPathTranslation())
			}

			c := kubectl.NewClient(execstest.NewInvoker(), opts...)
			assert.Equal(t, tc.want, c.TranslatePath(tc.path))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		res  *execs.Result
		want bool
	}{
		"not found": {
			res: &execs.Result{
				ExitCode: 1,
				Stderr:   `Error from server (NotFound): deployments.apps "web" not found`,
			},
			want: true,
		},
		"other failure": {
			res: &execs.Result{
				ExitCode: 2,
				Stderr:   "connection refused",
			},
			want: false,
		},
		"success with misleading stderr": {
			res: &execs.Result{
				ExitCode: 0,
				Stderr:   "NotFound",
			},
			want: false,
		},
		"nil result": {
			res: nil,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, kubectl.IsNotFound(tc.res))
		})
	}
}

func TestClient_LaunchFailureIsNotExitFailure(t *testing.T) {
	t.Parallel()

	invoker := execstest.NewInvoker()
	invoker.Script("kubectl", execstest.Response{
		Exit:   1,
		Stderr: "error",
	})

	c := kubectl.NewClient(invoker)

	res, err := c.Get(t.Context(), resource.Identifier{Kind: "pod", Name: "p1"}, "json")
	require.NoError(t, err, "a command that ran and failed is not a launch failure")
	assert.False(t, res.Succeeded())
	assert.False(t, errors.Is(err, execs.ErrLaunch))
}
