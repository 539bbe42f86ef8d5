package pdf

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// execCommandWithTimeout executes an external tool, bounded by timeout when it is positive
func execCommandWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%s timed out after %v", filepath.Base(name), timeout)
	}

	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return output, fmt.Errorf("%s failed: %w", filepath.Base(name), err)
		}
		return output, fmt.Errorf("%s failed: %w: %s", filepath.Base(name), err, msg)
	}

	return output, nil
}
