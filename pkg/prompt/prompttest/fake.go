// Package prompttest provides a scripted [prompt.Prompter] for tests.
package prompttest

import (
	"context"

	"github.com/macropower/kdev/pkg/prompt"
)

// Prompter replays scripted answers and counts how often it was asked.
// Err, when set, is returned from every method, which is how tests script a
// dismissed prompt. The plural value slices are consumed in order; once
// drained, the single-value fields answer every remaining call.
type Prompter struct {
	Err          error
	InputValue   string
	SelectValue  string
	ConfirmValue bool
	InputValues  []string
	SelectValues []string

	InputCalls   int
	SelectCalls  int
	ConfirmCalls int
}

func (p *Prompter) Input(_ context.Context, _, _ string) (string, error) {
	p.InputCalls++
	if p.Err != nil {
		return "", p.Err
	}

	if len(p.InputValues) > 0 {
		value := p.InputValues[0]
		p.InputValues = p.InputValues[1:]

		return value, nil
	}

	return p.InputValue, nil
}

func (p *Prompter) Select(_ context.Context, _ string, _ []prompt.Option) (string, error) {
	p.SelectCalls++
	if p.Err != nil {
		return "", p.Err
	}

	if len(p.SelectValues) > 0 {
		value := p.SelectValues[0]
		p.SelectValues = p.SelectValues[1:]

		return value, nil
	}

	return p.SelectValue, nil
}

func (p *Prompter) Confirm(_ context.Context, _ string) (bool, error) {
	p.ConfirmCalls++
	if p.Err != nil {
		return false, p.Err
	}

	return p.ConfirmValue, nil
}
