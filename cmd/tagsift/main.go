package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tagsift/internal/apperr"
)

var version = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, apperr.UserMessage(err))
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to shell-friendly codes: 2 for bad input,
// 3 for a lock conflict, 1 for everything else.
func exitCode(err error) int {
	switch apperr.KindOf(err) {
	case apperr.InvalidConfig:
		return 2
	case apperr.LockHeld:
		return 3
	default:
		return 1
	}
}
