package static

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
)

// writeTempUnit writes unit content to a temp file with the extension the
// tool expects. The caller removes the file when done.
func writeTempUnit(content string, ext string) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf(".critique-unit-%s%s", uuid.New().String(), ext))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write unit to temp file: %w", err)
	}
	return path, nil
}

// cleanupTempFile removes a temp file; cleanup failures are non-fatal and
// silently ignored when the file is already gone.
func cleanupTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to clean up temp file %s: %v\n", path, err)
	}
}

// runTool invokes a tool as a subprocess with a bounded timeout and returns
// its combined output. A non-zero exit with diagnostic output is normal for
// linters and is not treated as an error; the output is returned for
// parsing either way. timedOut reports deadline expiry.
func runTool(ctx context.Context, command string, args []string) (output []byte, timedOut bool, err error) {
	// #nosec G204 - command comes from the fixed tool table or user
	// configuration, not from reviewed file content.
	cmd := exec.CommandContext(ctx, command, args...)

	// Own process group so a timeout kills the tool and its children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		return buf.Bytes(), true, ctx.Err()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			// Diagnostics on a non-zero exit are the expected contract.
			return buf.Bytes(), false, nil
		}
		return buf.Bytes(), false, runErr
	}

	return buf.Bytes(), false, nil
}
