package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/macropower/kdev/internal/cli"
	"github.com/macropower/kdev/pkg/version"
)

func main() {
	cmd := cli.NewRootCmd()

	err := fang.Execute(context.Background(), cmd,
		fang.WithVersion(version.GetVersion()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err != nil {
		os.Exit(1)
	}
}
