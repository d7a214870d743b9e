package tactile

import (
	"context"
	"fmt"
)

// OpenCommand returns the platform command that opens target (a file path or
// URL) with the user's default application.
func OpenCommand(target string) Command {
	binary, args := openerInvocation()
	return Command{
		Binary:    binary,
		Arguments: append(args, target),
	}
}

// Open launches the default application for target and waits for the opener
// to return. Most openers hand off to a background process and exit at once.
func Open(ctx context.Context, executor Executor, target string) error {
	if target == "" {
		return fmt.Errorf("nothing to open")
	}
	result, err := executor.Execute(ctx, OpenCommand(target))
	if err != nil {
		return err
	}
	if result.IsError() {
		return fmt.Errorf("failed to launch opener: %s", result.Error)
	}
	if result.IsNonZeroExit() {
		return fmt.Errorf("opener exited with code %d: %s", result.ExitCode, result.Output())
	}
	return nil
}
