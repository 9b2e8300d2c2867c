package resource

// Object is an untyped manifest document.
type Object map[string]any

// GetKind returns the kind of the object, or an empty string when the kind
// is missing or not a string.
func (o Object) GetKind() string {
	if kind, ok := o["kind"]; ok {
		if k, ok := kind.(string); ok {
			return k
		}
	}

	return ""
}

// GetName returns the metadata.name of the object, or an empty string when
// it is missing or not a string.
func (o Object) GetName() string {
	if metadata, ok := o["metadata"].(map[string]any); ok {
		if name, ok := metadata["name"]; ok {
			if n, ok := name.(string); ok {
				return n
			}
		}
	}

	return ""
}

// GetNamespace returns the metadata.namespace of the object, or an empty
// string when it is not set.
func (o Object) GetNamespace() string {
	if metadata, ok := o["metadata"].(map[string]any); ok {
		if namespace, ok := metadata["namespace"]; ok {
			if ns, ok := namespace.(string); ok {
				return ns
			}
		}
	}

	return ""
}

// IsResource reports whether the object carries both a kind and a
// metadata.name, the minimum required to address it in a cluster.
func (o Object) IsResource() bool {
	return o.GetKind() != "" && o.GetName() != ""
}
