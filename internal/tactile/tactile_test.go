package tactile

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixtures require sh")
	}
}

func TestDirectExecutor_Execute(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), Command{
		Binary:    "echo",
		Arguments: []string{"hello"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Errorf("Expected success, got failure: %s", result.Error)
	}
	if result.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", result.ExitCode)
	}
	if result.Stdout != "hello\n" {
		t.Errorf("Expected stdout %q, got %q", "hello\n", result.Stdout)
	}
}

func TestDirectExecutor_ReadsToEndOfStream(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	// Well past any pipe buffer, written in pieces with a delay in between.
	script := `i=0; while [ $i -lt 2000 ]; do printf '0123456789abcdefghijklmnopqrstuvwxyz'; i=$((i+1)); done; sleep 0.1; printf 'tail'`
	result, err := executor.Execute(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", script},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if want := 2000*36 + 4; len(result.Stdout) != want {
		t.Errorf("Expected %d bytes, got %d", want, len(result.Stdout))
	}
	if !strings.HasSuffix(result.Stdout, "tail") {
		t.Errorf("Expected output to end with tail")
	}
}

func TestDirectExecutor_SeparatesStderr(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "echo warning >&2; echo 1,2"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Stdout != "1,2\n" {
		t.Errorf("unexpected stdout %q", result.Stdout)
	}
	if result.Stderr != "warning\n" {
		t.Errorf("unexpected stderr %q", result.Stderr)
	}
	if got := result.Output(); got != "1,2\n\nwarning\n" {
		t.Errorf("unexpected combined output %q", got)
	}
}

func TestDirectExecutor_NonZeroExit(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "echo error,bad input; exit 1"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Errorf("Expected success=true for non-zero exit, got: %s", result.Error)
	}
	if result.ExitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", result.ExitCode)
	}
	if !result.IsNonZeroExit() {
		t.Errorf("Expected IsNonZeroExit")
	}
	if result.Stdout != "error,bad input\n" {
		t.Errorf("Expected stdout to be kept, got %q", result.Stdout)
	}
}

func TestDirectExecutor_LaunchFailure(t *testing.T) {
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), Command{
		Binary: "nonexistent_command_xyz123",
	})
	if err != nil {
		t.Fatalf("Execute should report launch failure in the result, got error: %v", err)
	}
	if result.Success {
		t.Errorf("Expected failure for nonexistent command")
	}
	if !result.IsError() || result.Error == "" {
		t.Errorf("Expected IsError with a message, got %+v", result)
	}
}

func TestDirectExecutor_MissingWorkingDirectory(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), Command{
		Binary:           "echo",
		WorkingDirectory: filepath.Join(t.TempDir(), "missing"),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Errorf("Expected launch failure for missing directory")
	}
}

func TestDirectExecutor_Validate(t *testing.T) {
	executor := NewDirectExecutor()

	if err := executor.Validate(Command{}); err == nil {
		t.Error("Expected error for empty binary")
	}
	if err := executor.Validate(Command{Binary: "echo", Timeout: -time.Second}); err == nil {
		t.Error("Expected error for negative timeout")
	}
	if _, err := executor.Execute(context.Background(), Command{}); err == nil {
		t.Error("Expected Execute to reject empty binary")
	}
}

func TestDirectExecutor_Timeout(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	start := time.Now()
	result, err := executor.Execute(context.Background(), Command{
		Binary:    "sleep",
		Arguments: []string{"10"},
		Timeout:   300 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Killed {
		t.Errorf("Expected command to be killed")
	}
	if !strings.Contains(result.KillReason, "timeout") {
		t.Errorf("Expected kill reason to mention timeout, got: %s", result.KillReason)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Timeout didn't work, elapsed: %v", elapsed)
	}
}

func TestDirectExecutor_Environment(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("DIALERT_PARENT_VAR", "parent")
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), Command{
		Binary:      "sh",
		Arguments:   []string{"-c", `printf '%s %s' "$DIALERT_PARENT_VAR" "$DIALERT_CHILD_VAR"`},
		Environment: []string{"DIALERT_CHILD_VAR=child"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Stdout != "parent child" {
		t.Errorf("unexpected environment %q", result.Stdout)
	}
}

func TestExecutorConfig_Merge(t *testing.T) {
	cfg := ExecutorConfig{DefaultWorkingDir: "/srv/model", DefaultTimeout: time.Minute}

	merged := cfg.Merge(Command{Binary: "python"})
	if merged.WorkingDirectory != "/srv/model" || merged.Timeout != time.Minute {
		t.Errorf("defaults not applied: %+v", merged)
	}

	merged = cfg.Merge(Command{Binary: "python", WorkingDirectory: "/tmp", Timeout: time.Second})
	if merged.WorkingDirectory != "/tmp" || merged.Timeout != time.Second {
		t.Errorf("command settings overridden: %+v", merged)
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{Binary: "python", Arguments: []string{"predict.py", "male", "45"}}
	if got := cmd.CommandString(); got != "python predict.py male 45" {
		t.Errorf("unexpected command string %q", got)
	}
	if got := (Command{Binary: "ls"}).CommandString(); got != "ls" {
		t.Errorf("unexpected command string %q", got)
	}
}

type recordingExecutor struct {
	got    Command
	result *ExecutionResult
}

func (r *recordingExecutor) Execute(_ context.Context, cmd Command) (*ExecutionResult, error) {
	r.got = cmd
	return r.result, nil
}

func (r *recordingExecutor) Validate(Command) error { return nil }

func TestOpen(t *testing.T) {
	rec := &recordingExecutor{result: &ExecutionResult{Success: true}}
	if err := Open(context.Background(), rec, "result.txt"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if args := rec.got.Arguments; len(args) == 0 || args[len(args)-1] != "result.txt" {
		t.Errorf("target not passed last: %+v", rec.got)
	}

	rec.result = &ExecutionResult{Success: false, Error: "not found"}
	if err := Open(context.Background(), rec, "result.txt"); err == nil {
		t.Error("Expected error when the opener cannot start")
	}

	rec.result = &ExecutionResult{Success: true, ExitCode: 3}
	if err := Open(context.Background(), rec, "result.txt"); err == nil {
		t.Error("Expected error for non-zero opener exit")
	}

	if err := Open(context.Background(), rec, ""); err == nil {
		t.Error("Expected error for empty target")
	}
}
