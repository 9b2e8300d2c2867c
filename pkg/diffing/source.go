package diffing

// Format is the serialization format used for the materialized comparison
// files.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Source is where the local manifest text came from. The concrete type
// decides how the text is materialized for comparison.
type Source interface {
	source()
}

type (
	// SelectionSource is an explicit text snippet, e.g. a shell selection or
	// an argument. ForcedFormat, when set, overrides content detection for
	// the materialized file extension only.
	SelectionSource struct {
		Text         string
		ForcedFormat Format
	}

	// StdinSource is piped text with no backing file.
	StdinSource struct {
		Text string
	}

	// FileSource is a saved manifest file. Unsaved, when non-empty, is newer
	// text that has not been written to Path yet; the engine offers to save
	// it before comparing.
	FileSource struct {
		Path    string
		Unsaved string
	}
)

func (SelectionSource) source() {}
func (StdinSource) source()     {}
func (FileSource) source()      {}

// ApplyInput derives the input for applying a source: either literal
// manifest text or a backing file path, never both. Unlike
// [Engine.MaterializeText] it never prompts, so it is safe to call after a
// classification already resolved the save question. Unsaved text wins over
// the backing file; when the save was confirmed during classification the
// file holds the same text, so the two are interchangeable.
func ApplyInput(source Source) (text, path string) {
	switch s := source.(type) {
	case SelectionSource:
		return s.Text, ""

	case StdinSource:
		return s.Text, ""

	case FileSource:
		if s.Unsaved != "" {
			return s.Unsaved, ""
		}

		return "", s.Path
	}

	return "", ""
}

// ResolveSource picks the candidate source in priority order: explicit
// selection text, then piped stdin, then a file path. Returns nil when none
// is available.
func ResolveSource(selection string, stdin []byte, path string) Source {
	switch {
	case selection != "":
		return SelectionSource{Text: selection}
	case len(stdin) > 0:
		return StdinSource{Text: string(stdin)}
	case path != "":
		return FileSource{Path: path}
	}

	return nil
}
