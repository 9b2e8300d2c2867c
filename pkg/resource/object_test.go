package resource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/kdev/pkg/resource"
)

func TestObject_Accessors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		object        resource.Object
		wantKind      string
		wantName      string
		wantNamespace string
		wantResource  bool
	}{
		"complete object": {
			object: resource.Object{
				"kind": "Deployment",
				"metadata": map[string]any{
					"name":      "web",
					"namespace": "staging",
				},
			},
			wantKind:      "Deployment",
			wantName:      "web",
			wantNamespace: "staging",
			wantResource:  true,
		},
		"missing namespace": {
			object: resource.Object{
				"kind": "Pod",
				"metadata": map[string]any{
					"name": "p1",
				},
			},
			wantKind:     "Pod",
			wantName:     "p1",
			wantResource: true,
		},
		"non-string kind": {
			object: resource.Object{
				"kind": 42,
				"metadata": map[string]any{
					"name": "p1",
				},
			},
			wantName: "p1",
		},
		"nil object": {
			object: nil,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.wantKind, tc.object.GetKind())
			assert.Equal(t, tc.wantName, tc.object.GetName())
			assert.Equal(t, tc.wantNamespace, tc.object.GetNamespace())
			assert.Equal(t, tc.wantResource, tc.object.IsResource())
		})
	}
}
