package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when a process exceeds the configured timeout.
var ErrTimeout = errors.New("process timed out")

// processResult is what a finished process produced.
type processResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output is the text a test is judged by: stderr when the process wrote
// any, stdout otherwise.
func (p processResult) Output() string {
	if p.Stderr != "" {
		return p.Stderr
	}
	return p.Stdout
}

// runProcess runs argv with a timeout. A non-zero exit status is reported
// in the result, not as an error; errors mean the process could not be
// started or was killed.
func runProcess(ctx context.Context, timeout time.Duration, dir string, argv []string) (processResult, error) {
	if len(argv) == 0 || argv[0] == "" {
		return processResult{}, fmt.Errorf("empty command")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := processResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("%s: %w after %s", argv[0], ErrTimeout, timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", argv[0], err)
	}
	return res, nil
}

// expandTemplate substitutes placeholders in a command template.
func expandTemplate(argv []string, vars map[string]string) []string {
	out := make([]string, len(argv))
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	for i, a := range argv {
		out[i] = r.Replace(a)
	}
	return out
}
