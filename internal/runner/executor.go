package runner

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Invocation is one benchmark process to run.
type Invocation struct {
	Tool string
	Args []string
	// Dir is the working directory, the project being measured.
	Dir string
}

// Executor runs an Invocation to completion. A process that starts and
// exits non-zero is not an error: its code is returned. err is reserved
// for processes that could not run at all.
type Executor interface {
	Run(ctx context.Context, inv Invocation) (exitCode int, err error)
}

// HyperfineExecutor runs invocations as subprocesses, streaming their
// output to Stdout and Stderr.
type HyperfineExecutor struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Executor.
func (e HyperfineExecutor) Run(ctx context.Context, inv Invocation) (int, error) {
	cmd := exec.CommandContext(ctx, inv.Tool, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when killed by a signal; still a failure for the caller
		if code := exitErr.ExitCode(); code != 0 {
			return code, nil
		}
		return 1, nil
	}
	return 0, err
}
