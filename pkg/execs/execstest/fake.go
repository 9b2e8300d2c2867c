// Package execstest provides a scripted [execs.Invoker] for tests.
package execstest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/macropower/kdev/pkg/execs"
)

// Response scripts the outcome of one invocation. Err set means the launch
// itself failed.
type Response struct {
	Err    error
	Stdout string
	Stderr string
	Exit   int
}

// Invoker replays scripted responses keyed by command-line prefix, recording
// every command it is asked to run. An unmatched command succeeds with empty
// output, so tests only script the calls they care about.
type Invoker struct {
	mu        sync.Mutex
	responses []scripted
	Commands  []string
}

type scripted struct {
	prefix string
	resp   Response
}

// NewInvoker creates an empty [Invoker].
func NewInvoker() *Invoker {
	return &Invoker{}
}

// Script registers a response for any command line starting with prefix.
// Earlier registrations win; a prefix can be registered multiple times, in
// which case registrations are consumed in order.
func (f *Invoker) Script(prefix string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses = append(f.responses, scripted{prefix: prefix, resp: resp})
}

func (f *Invoker) Exec(_ context.Context, name string, args ...string) (*execs.Result, error) {
	resp := f.record(name, args)
	if resp.Err != nil {
		return nil, resp.Err
	}

	return &execs.Result{
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
		ExitCode: resp.Exit,
	}, nil
}

func (f *Invoker) ExecWithStdin(ctx context.Context, _ []byte, name string, args ...string) (*execs.Result, error) {
	return f.Exec(ctx, name, args...)
}

func (f *Invoker) ExecInteractive(_ context.Context, name string, args ...string) (int, error) {
	resp := f.record(name, args)
	if resp.Err != nil {
		return 0, resp.Err
	}

	return resp.Exit, nil
}

// CommandsWithPrefix returns every recorded command line starting with prefix.
func (f *Invoker) CommandsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string

	for _, c := range f.Commands {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}

	return out
}

func (f *Invoker) record(name string, args []string) Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	line := name
	if len(args) > 0 {
		line = fmt.Sprintf("%s %s", name, strings.Join(args, " "))
	}

	f.Commands = append(f.Commands, line)

	for i, s := range f.responses {
		if strings.HasPrefix(line, s.prefix) {
			f.responses = append(f.responses[:i], f.responses[i+1:]...)

			return s.resp
		}
	}

	return Response{}
}
