// Package main is the entry point for the nono binary.
// It delegates immediately to the CLI command tree.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/neoclaw-ai/nono/internal/cli"
	"github.com/neoclaw-ai/nono/internal/launcher"
	"github.com/neoclaw-ai/nono/internal/logging"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		var exitErr *launcher.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		logging.Logger().Error("fatal error", "err", err)
		os.Exit(1)
	}
}
