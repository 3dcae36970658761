package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rentportal/rentportal-cli/internal/cmd"
)

var (
	executeCmd  = cmd.Execute
	mapExitCode = cmd.ExitCode
	terminate   = os.Exit
)

// run executes the CLI and returns the process exit code. An interrupt
// cancels the context so in-flight requests stop with a cancelled error.
func run(ctx context.Context, args []string) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := executeCmd(ctx, args); err != nil {
		return mapExitCode(err)
	}
	return 0
}

func main() {
	terminate(run(context.Background(), os.Args[1:]))
}
