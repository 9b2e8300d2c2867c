package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/kdev/pkg/execs/execstest"
	"github.com/macropower/kdev/pkg/kubectl"
	"github.com/macropower/kdev/pkg/session"
)

func TestSession_ToggleExplain(t *testing.T) {
	t.Parallel()

	s := session.New(kubectl.NewClient(execstest.NewInvoker()))

	assert.False(t, s.ExplainEnabled())
	assert.True(t, s.ToggleExplain())
	assert.True(t, s.ExplainEnabled())
	assert.False(t, s.ToggleExplain())
	assert.False(t, s.ExplainEnabled())
}

func TestSession_Explain(t *testing.T) {
	t.Parallel()

	t.Run("memoizes per field path", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("kubectl explain deployment.spec", execstest.Response{Stdout: "spec docs"})

		s := session.New(kubectl.NewClient(invoker))

		for range 3 {
			out, err := s.Explain(t.Context(), "deployment.spec")
			require.NoError(t, err)
			assert.Equal(t, "spec docs", out)
		}

		assert.Len(t, invoker.CommandsWithPrefix("kubectl explain"), 1)
	})

	t.Run("toggling off invalidates the cache", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("kubectl explain", execstest.Response{Stdout: "first"})
		invoker.Script("kubectl explain", execstest.Response{Stdout: "second"})

		s := session.New(kubectl.NewClient(invoker))
		s.ToggleExplain()

		out, err := s.Explain(t.Context(), "pod.spec")
		require.NoError(t, err)
		assert.Equal(t, "first", out)

		// Off then on again starts from an empty cache.
		s.ToggleExplain()
		s.ToggleExplain()

		out, err = s.Explain(t.Context(), "pod.spec")
		require.NoError(t, err)
		assert.Equal(t, "second", out)

		assert.Len(t, invoker.CommandsWithPrefix("kubectl explain"), 2)
	})

	t.Run("failed explain is not cached", func(t *testing.T) {
		t.Parallel()

		invoker := execstest.NewInvoker()
		invoker.Script("kubectl explain", execstest.Response{
			Exit:   1,
			Stderr: `error: field "nope" does not exist`,
		})
		invoker.Script("kubectl explain", execstest.Response{Stdout: "recovered"})

		s := session.New(kubectl.NewClient(invoker))

		_, err := s.Explain(t.Context(), "nope")
		require.ErrorContains(t, err, "explain nope")

		out, err := s.Explain(t.Context(), "nope")
		require.NoError(t, err)
		assert.Equal(t, "recovered", out)
	})
}
