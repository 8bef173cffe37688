package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/firefly-engineering/flatplay/cmd"
	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		logging.UserError("%v", err)
		var fe *errors.FlatplayError
		if errors.As(err, &fe) && len(fe.Tail) > 0 {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, fe.OutputTail())
		}
		os.Exit(errors.GetExitCode(err))
	}
}
