// Package prompt provides interactive disambiguation prompts.
//
// Dismissing a prompt is reported as [ErrCanceled], which command handlers
// treat as a silent abort rather than an error.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

var (
	// ErrCanceled is returned when the user dismisses a prompt without
	// choosing a value.
	ErrCanceled = errors.New("prompt canceled")

	// ErrNotInteractive is returned when a prompt is required but stdin is
	// not a terminal.
	ErrNotInteractive = errors.New("stdin is not interactive")
)

// Option is one selectable entry. Description is supplementary detail shown
// alongside the label.
type Option struct {
	Label       string
	Value       string
	Description string
}

// Prompter asks the user for values. Implementations must report dismissal
// as [ErrCanceled].
type Prompter interface {
	Input(ctx context.Context, title, placeholder string) (string, error)
	Select(ctx context.Context, title string, options []Option) (string, error)
	Confirm(ctx context.Context, title string) (bool, error)
}

// HuhPrompter implements [Prompter] with huh forms.
type HuhPrompter struct{}

// NewHuhPrompter creates a new [HuhPrompter].
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{}
}

// Input asks for a free-text value. An empty submission accepts the
// placeholder.
func (p *HuhPrompter) Input(ctx context.Context, title, placeholder string) (string, error) {
	if err := requireTerminal(); err != nil {
		return "", err
	}

	var value string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder(placeholder).
				Value(&value),
		),
	).WithShowHelp(false)

	err := form.RunWithContext(ctx)
	if err != nil {
		return "", wrapFormErr(err)
	}

	return inputValue(value, placeholder), nil
}

// inputValue resolves a submitted input: an empty submission accepts the
// placeholder as the default. Dismissal is reported by huh as
// [huh.ErrUserAborted], never as an empty value.
func inputValue(value, placeholder string) string {
	if value == "" {
		return placeholder
	}

	return value
}

// Select asks the user to pick one of the options.
func (p *HuhPrompter) Select(ctx context.Context, title string, options []Option) (string, error) {
	if err := requireTerminal(); err != nil {
		return "", err
	}

	huhOpts := make([]huh.Option[string], 0, len(options))

	for _, opt := range options {
		label := opt.Label
		if opt.Description != "" {
			label = fmt.Sprintf("%s (%s)", opt.Label, opt.Description)
		}

		huhOpts = append(huhOpts, huh.NewOption(label, opt.Value))
	}

	var value string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(huhOpts...).
				Value(&value),
		),
	).WithShowHelp(false)

	err := form.RunWithContext(ctx)
	if err != nil {
		return "", wrapFormErr(err)
	}

	return value, nil
}

// Confirm asks a yes/no question.
func (p *HuhPrompter) Confirm(ctx context.Context, title string) (bool, error) {
	if err := requireTerminal(); err != nil {
		return false, err
	}

	var value bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&value),
		),
	).WithShowHelp(false)

	err := form.RunWithContext(ctx)
	if err != nil {
		return false, wrapFormErr(err)
	}

	return value, nil
}

func requireTerminal() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrNotInteractive
	}

	return nil
}

func wrapFormErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCanceled
	}

	return fmt.Errorf("run prompt: %w", err)
}
