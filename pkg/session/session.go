// Package session holds per-process command state with an explicit
// lifecycle, replacing ad hoc globals: the explain-mode toggle and the
// memoized `kubectl explain` output it feeds on.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/macropower/kdev/pkg/kubectl"
)

// Session is created by the command layer on first use and passed to the
// handlers that need it. It is safe for concurrent use.
type Session struct {
	client  *kubectl.Client
	cache   map[string]string
	mu      sync.Mutex
	explain bool
}

// New creates a new [Session].
func New(client *kubectl.Client) *Session {
	return &Session{
		client: client,
		cache:  map[string]string{},
	}
}

// ExplainEnabled reports whether explain mode is on.
func (s *Session) ExplainEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.explain
}

// ToggleExplain flips explain mode. Turning it off invalidates the cached
// explanations, so a later re-enable starts fresh.
func (s *Session) ToggleExplain() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.explain = !s.explain
	if !s.explain {
		s.cache = map[string]string{}
	}

	return s.explain
}

// Explain returns the cluster documentation for a kind or field path,
// memoized for the session's lifetime.
func (s *Session) Explain(ctx context.Context, field string) (string, error) {
	s.mu.Lock()
	cached, ok := s.cache[field]
	s.mu.Unlock()

	if ok {
		return cached, nil
	}

	res, err := s.client.Explain(ctx, field)
	if err != nil {
		return "", err
	}

	if !res.Succeeded() {
		return "", fmt.Errorf("explain %s: %s", field, strings.TrimSpace(res.Stderr))
	}

	s.mu.Lock()
	s.cache[field] = res.Stdout
	s.mu.Unlock()

	return res.Stdout, nil
}
