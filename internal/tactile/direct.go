package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"dialert/internal/logging"

	"go.uber.org/zap"
)

// DirectExecutor executes commands directly on the host using os/exec.
type DirectExecutor struct {
	config ExecutorConfig
}

// NewDirectExecutor creates a new direct executor with default config.
func NewDirectExecutor() *DirectExecutor {
	return NewDirectExecutorWithConfig(DefaultExecutorConfig())
}

// NewDirectExecutorWithConfig creates a new direct executor with custom config.
func NewDirectExecutorWithConfig(config ExecutorConfig) *DirectExecutor {
	logging.Get(logging.CategoryTactile).Debug("creating DirectExecutor",
		zap.String("dir", config.DefaultWorkingDir),
		zap.Duration("timeout", config.DefaultTimeout))
	return &DirectExecutor{config: config}
}

// Validate checks if a command can be executed.
func (e *DirectExecutor) Validate(cmd Command) error {
	if cmd.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	if cmd.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", cmd.Timeout)
	}
	return nil
}

// Execute runs a command directly on the host and waits for it to exit.
//
// Stdout and stderr are captured in full: Run only returns once both pipes
// have reached EOF and the process has been reaped, on every exit path.
// Without a timeout the call blocks for as long as the child runs.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	log := logging.Get(logging.CategoryTactile)
	timer := logging.StartTimer(logging.CategoryTactile, "direct command execution")
	defer timer.Stop()

	if err := e.Validate(cmd); err != nil {
		log.Warn("command validation failed", zap.String("binary", cmd.Binary), zap.Error(err))
		return nil, err
	}

	cmd = e.config.Merge(cmd)
	log.Debug("executing", zap.String("command", cmd.CommandString()), zap.String("dir", cmd.WorkingDirectory))

	result := &ExecutionResult{
		ExitCode: -1,
		Command:  &cmd,
	}

	execCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	if len(cmd.Environment) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Environment...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	execCmd.Stdout = &stdoutBuf
	execCmd.Stderr = &stderrBuf

	result.StartedAt = time.Now()
	err := execCmd.Run()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Success = true
		result.ExitCode = 0
	case errors.Is(execCtx.Err(), context.DeadlineExceeded) && execCmd.ProcessState != nil:
		result.Success = true
		result.Killed = true
		result.KillReason = fmt.Sprintf("timeout after %s", cmd.Timeout)
		log.Warn("command killed", zap.String("binary", cmd.Binary), zap.String("reason", result.KillReason))
	case errors.Is(execCtx.Err(), context.Canceled) && execCmd.ProcessState != nil:
		result.Success = true
		result.Killed = true
		result.KillReason = "context canceled"
		log.Debug("command canceled", zap.String("binary", cmd.Binary))
	case errors.As(err, &exitErr):
		result.Success = true
		result.ExitCode = exitErr.ExitCode()
		log.Debug("command exited non-zero", zap.String("binary", cmd.Binary), zap.Int("exit_code", result.ExitCode))
	default:
		// The process never started (missing binary, bad directory, canceled before start).
		result.Success = false
		result.Error = err.Error()
		log.Error("command failed to start", zap.String("binary", cmd.Binary), zap.Error(err))
		return result, nil
	}

	log.Debug("command completed",
		zap.String("binary", cmd.Binary),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
		zap.Int("stdout_bytes", len(result.Stdout)))

	return result, nil
}
