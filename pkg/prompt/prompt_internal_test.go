package prompt

import (
	"errors"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputValue(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		value       string
		placeholder string
		want        string
	}{
		"submitted value wins": {
			value:       "api",
			placeholder: "deployment",
			want:        "api",
		},
		"empty submission accepts the placeholder": {
			placeholder: "deployment",
			want:        "deployment",
		},
		"empty submission with no placeholder stays empty": {
			want: "",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, inputValue(tc.value, tc.placeholder))
		})
	}
}

func TestWrapFormErr(t *testing.T) {
	t.Parallel()

	t.Run("dismissal becomes canceled", func(t *testing.T) {
		t.Parallel()

		assert.ErrorIs(t, wrapFormErr(huh.ErrUserAborted), ErrCanceled)
	})

	t.Run("other errors are not canceled", func(t *testing.T) {
		t.Parallel()

		err := wrapFormErr(errors.New("render failed"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCanceled)
		assert.Contains(t, err.Error(), "render failed")
	})
}
