package debug

import (
	"context"
	"strings"

	"github.com/macropower/kdev/pkg/execs"
)

const (
	// VersionLatest is used when the project carries no version metadata.
	VersionLatest = "latest"
	// VersionError is used when the version lookup mechanism itself failed.
	VersionError = "error"
)

// VersionLookup resolves the image tag for a project directory.
type VersionLookup interface {
	Version(ctx context.Context, dir string) string
}

// GitVersionLookup derives the version from `git describe`. A project that
// is not a repository yields [VersionLatest]; a git binary that cannot be
// launched yields [VersionError].
type GitVersionLookup struct {
	invoker execs.Invoker
}

// NewGitVersionLookup creates a new [GitVersionLookup].
func NewGitVersionLookup(invoker execs.Invoker) *GitVersionLookup {
	return &GitVersionLookup{invoker: invoker}
}

func (g *GitVersionLookup) Version(ctx context.Context, dir string) string {
	res, err := g.invoker.Exec(ctx, "git", "-C", dir, "describe", "--always", "--dirty")
	if err != nil {
		return VersionError
	}

	if !res.Succeeded() {
		return VersionLatest
	}

	version := strings.TrimSpace(res.Stdout)
	if version == "" {
		return VersionLatest
	}

	return version
}

// SplitImageTag splits an image reference into repository and tag. An image
// without a tag yields an empty tag; the split is on the last colon so
// registry ports are not mistaken for tags.
func SplitImageTag(image string) (repo, tag string) {
	idx := strings.LastIndex(image, ":")
	if idx < 0 {
		return image, ""
	}

	// A colon inside a registry host (e.g. localhost:5000/app) is not a tag
	// separator.
	if strings.Contains(image[idx:], "/") {
		return image, ""
	}

	return image[:idx], image[idx+1:]
}
