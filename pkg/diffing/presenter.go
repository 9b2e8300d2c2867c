package diffing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/lipgloss"
	shellwords "github.com/mattn/go-shellwords"

	"github.com/macropower/kdev/pkg/execs"
)

// Presenter shows a comparison between the local and live files.
type Presenter interface {
	Present(ctx context.Context, localPath, serverPath string) error
}

// UnifiedPresenter renders a colored unified diff to a writer. It is the
// default presentation when no external diff tool is configured.
type UnifiedPresenter struct {
	w            io.Writer
	insertedText lipgloss.Style
	deletedText  lipgloss.Style
	headerText   lipgloss.Style
}

// NewUnifiedPresenter creates a new [UnifiedPresenter] writing to w.
func NewUnifiedPresenter(w io.Writer) *UnifiedPresenter {
	return &UnifiedPresenter{
		w:            w,
		insertedText: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		deletedText:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		headerText:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func (p *UnifiedPresenter) Present(_ context.Context, localPath, serverPath string) error {
	local, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read local file: %w", err)
	}

	server, err := os.ReadFile(serverPath)
	if err != nil {
		return fmt.Errorf("read server file: %w", err)
	}

	unified := udiff.Unified(localPath, serverPath, string(local), string(server))
	if unified == "" {
		fmt.Fprintln(p.w, "No differences.")

		return nil
	}

	for line := range strings.Lines(unified) {
		switch {
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(p.w, p.insertedText.Render(strings.TrimSuffix(line, "\n"))+"\n")
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(p.w, p.deletedText.Render(strings.TrimSuffix(line, "\n"))+"\n")
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(p.w, p.headerText.Render(strings.TrimSuffix(line, "\n"))+"\n")
		default:
			fmt.Fprint(p.w, line)
		}
	}

	return nil
}

// ToolPresenter launches a configured external diff tool with the two file
// paths appended to its command line.
type ToolPresenter struct {
	invoker execs.Invoker
	name    string
	args    []string
}

// NewToolPresenter parses commandLine into a tool invocation.
func NewToolPresenter(invoker execs.Invoker, commandLine string) (*ToolPresenter, error) {
	words, err := shellwords.Parse(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parse diff tool command %q: %w", commandLine, err)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("parse diff tool command %q: %w", commandLine, execs.ErrEmptyCommand)
	}

	return &ToolPresenter{
		invoker: invoker,
		name:    words[0],
		args:    words[1:],
	}, nil
}

func (p *ToolPresenter) Present(ctx context.Context, localPath, serverPath string) error {
	args := append(append([]string{}, p.args...), localPath, serverPath)

	// Exit code is ignored: diff tools conventionally exit nonzero when the
	// files differ.
	_, err := p.invoker.ExecInteractive(ctx, p.name, args...)
	if err != nil {
		return fmt.Errorf("present diff: %w", err)
	}

	return nil
}
