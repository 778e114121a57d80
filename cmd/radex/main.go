package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"radex/internal/artifact"
	"radex/internal/sampling"
)

func main() {
	err := newRootCommand().Execute()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps error classes to distinct exit codes so scripted experiment
// sweeps can tell an undersized cohort or a corrupted artifact from an
// ordinary failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, sampling.ErrInsufficientData),
		errors.Is(err, sampling.ErrOutOfRange),
		errors.Is(err, sampling.ErrCount):
		return 2
	case errors.Is(err, artifact.ErrIntegrity):
		return 3
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
