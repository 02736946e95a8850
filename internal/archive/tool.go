package archive

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

// toolCandidates is the ordered list of executable names and well-known
// install locations probed when looking for 7-Zip.
var toolCandidates = []string{
	"7z",
	"7zz",
	"7za",
	`C:\Program Files\7-Zip\7z.exe`,
	`C:\Program Files (x86)\7-Zip\7z.exe`,
}

// allowedExecutables is the allow-list enforced on every invocation,
// matched against the executable's base name.
var allowedExecutables = map[string]bool{
	"7z":      true,
	"7z.exe":  true,
	"7zz":     true,
	"7za":     true,
	"7za.exe": true,
}

// shellMetaChars would only matter if arguments leaked into a shell, but
// rejecting them keeps archive member names from ever carrying anything
// executable.
const shellMetaChars = ";&|`$()<>"

const probeTimeout = 5 * time.Second

// toolRunResult carries the captured output of one tool invocation.
type toolRunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// FindTool probes the candidate list and returns the first executable that
// responds like 7-Zip: invoking it with no arguments either succeeds or
// prints the tool's signature banner.
func FindTool(ctx context.Context, log logger.Logger) (string, error) {
	for _, cand := range toolCandidates {
		res, err := runTool(ctx, cand, nil, probeTimeout)
		if err != nil {
			log.Debug("archive tool candidate not usable",
				logger.String("candidate", cand),
				logger.Error(err),
			)
			continue
		}
		if res.ExitCode == 0 || strings.Contains(res.Stdout, "7-Zip") || strings.Contains(res.Stdout, "Igor Pavlov") {
			log.Info("archive tool found", logger.String("command", cand))
			return cand, nil
		}
	}
	return "", ErrToolNotFound
}

// runTool executes the archive tool with the given argument vector and a
// hard timeout. The executable must be allow-listed and no argument may
// contain shell metacharacters.
func runTool(ctx context.Context, command string, args []string, timeout time.Duration) (*toolRunResult, error) {
	if !allowedExecutables[strings.ToLower(filepath.Base(command))] {
		return nil, fmt.Errorf("executable not allowed: %s", command)
	}
	for _, arg := range args {
		if strings.ContainsAny(arg, shellMetaChars) {
			return nil, fmt.Errorf("suspicious argument rejected: %q", arg)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &toolRunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("tool invocation timed out after %s", timeout)
		}
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("tool invocation failed: %w", err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}
