package diffing

// Outcome is the classification of one diff invocation. Exactly one variant
// is produced per invocation, and each variant carries only the fields
// defined for it.
type Outcome interface {
	outcome()
}

type (
	// Succeeded means the live query exited zero and the comparison was
	// shown. It does not imply anything about user follow-up action.
	Succeeded struct{}

	// NoEditor means no source was supplied at all.
	NoEditor struct{}

	// NoKindName means the source text did not resolve to a single resource
	// identifier.
	NoKindName struct {
		Reason string
	}

	// NoClusterResource means the resource does not exist on the cluster.
	NoClusterResource struct {
		ResourceName string
	}

	// GetFailed means the live query failed for a reason other than the
	// resource being absent.
	GetFailed struct {
		Stderr string
	}

	// NothingToDiff means a source exists but yielded no text.
	NothingToDiff struct{}
)

func (Succeeded) outcome()         {}
func (NoEditor) outcome()          {}
func (NoKindName) outcome()        {}
func (NoClusterResource) outcome() {}
func (GetFailed) outcome()         {}
func (NothingToDiff) outcome()     {}
