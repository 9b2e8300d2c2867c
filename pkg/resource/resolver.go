// Package resource resolves manifest text into cluster resource identifiers.
//
// A document qualifies as a resource when it carries a `kind` and a
// `metadata.name`. Resolution distinguishes malformed documents (parse
// errors) from well-formed documents that are not resources, and single
// non-resource documents from multi-document inputs containing one.
package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

var (
	// ErrNotResource is returned when a lone document is not a cluster
	// resource.
	ErrNotResource = errors.New("document is not a resource")

	// ErrItemNotResource is returned when a multi-document input contains a
	// document that is not a cluster resource.
	ErrItemNotResource = errors.New("document contains an item which is not a resource")

	// ErrMultipleResources is returned by [ResolveOne] when the input
	// declares more than one resource.
	ErrMultipleResources = errors.New("document contains multiple resources")

	// ErrNoResources is returned by [ResolveOne] when the input declares no
	// resources at all.
	ErrNoResources = errors.New("document contains no resources")
)

// ParseError reports malformed document syntax. It is a distinct error kind
// from the semantic errors above.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Identifier addresses one cluster resource. Kind is always lower-cased;
// Namespace may be empty.
type Identifier struct {
	Kind      string
	Name      string
	Namespace string
}

// String returns the identifier in `kind/name` form, as accepted by the
// cluster CLI.
func (id Identifier) String() string {
	return id.Kind + "/" + id.Name
}

// ResolveAll parses text into zero or more resource identifiers, one per
// document, in document order. JSON input (leading `{`) is a single
// document; YAML input may hold multiple documents separated by `---`.
func ResolveAll(text string) ([]Identifier, error) {
	docs := splitDocuments(text)
	if len(docs) == 0 {
		return nil, nil
	}

	objs := make([]Object, 0, len(docs))

	for _, doc := range docs {
		var value any

		err := yaml.UnmarshalWithOptions([]byte(doc), &value, yaml.AllowDuplicateMapKey())
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		// A well-formed scalar or sequence document is not a resource, which
		// is a semantic mismatch rather than a parse error.
		obj, _ := value.(map[string]any)

		objs = append(objs, Object(obj))
	}

	ids := make([]Identifier, 0, len(objs))

	for _, obj := range objs {
		if !obj.IsResource() {
			if len(objs) == 1 {
				return nil, ErrNotResource
			}

			return nil, ErrItemNotResource
		}

		ids = append(ids, Identifier{
			Kind:      strings.ToLower(obj.GetKind()),
			Name:      obj.GetName(),
			Namespace: obj.GetNamespace(),
		})
	}

	return ids, nil
}

// ResolveOne parses text and additionally enforces that it declares exactly
// one resource. It is the path used by single-target operations.
func ResolveOne(text string) (Identifier, error) {
	ids, err := ResolveAll(text)
	if err != nil {
		return Identifier{}, err
	}

	switch len(ids) {
	case 0:
		return Identifier{}, ErrNoResources
	case 1:
		return ids[0], nil
	}

	return Identifier{}, fmt.Errorf("%w: %d found, expected exactly one", ErrMultipleResources, len(ids))
}

// splitDocuments splits text on the YAML document separator without
// re-encoding, preserving each document exactly as written. A JSON value is
// treated as one document regardless of embedded separators.
func splitDocuments(text string) []string {
	if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "{") {
		return []string{trimmed}
	}

	text = strings.TrimPrefix(text, "---\n")
	text = strings.TrimSuffix(text, "\n---")

	docs := strings.Split(text, "\n---\n")

	var result []string

	for _, doc := range docs {
		trimmed := strings.TrimSpace(doc)
		if trimmed != "" && trimmed != "null" {
			result = append(result, trimmed)
		}
	}

	return result
}
