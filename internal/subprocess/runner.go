// Package subprocess spawns the gammu-json helper and parses its output.
package subprocess

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"github.com/aegisgw/smsgateway/message"
)

// Runner spawns a subprocess with the given argument vector and returns its
// parsed JSON stdout. Standard input is closed immediately; standard error
// is diagnostic only and is never part of the result.
type Runner interface {
	Run(ctx context.Context, args []string) (json.RawMessage, error)
}

// ExecRunner is the default Runner, backed by os/exec.
type ExecRunner struct {
	// Path is the gammu-json executable, resolved via PATH if not absolute.
	Path string
	// Env, when non-nil, overrides the child process environment
	// (e.g. with a PATH amended by the "prefix" option).
	Env []string
}

// NewExecRunner creates a Runner that spawns path with optional env
// overrides.
func NewExecRunner(path string, env []string) *ExecRunner {
	return &ExecRunner{Path: path, Env: env}
}

// Run spawns the helper and returns its parsed stdout JSON. Only one
// subprocess runs per call; callers needing concurrency run distinct Run
// calls concurrently themselves.
func (r *ExecRunner) Run(ctx context.Context, args []string) (json.RawMessage, error) {
	cmd := exec.CommandContext(ctx, r.Path, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = nil // closed immediately; the helper does not read stdin

	fullArgs := append([]string{r.Path}, args...)

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, &message.SubprocessExit{Code: exitErr.ExitCode(), Args: fullArgs}
		}
		return nil, &message.SubprocessExit{Code: -1, Args: fullArgs}
	}

	raw := bytes.TrimSpace(stdout.Bytes())
	if !json.Valid(raw) {
		return nil, &message.SubprocessParse{Cause: errNotValidJSON, Args: fullArgs}
	}
	return json.RawMessage(raw), nil
}

var errNotValidJSON = jsonError("gammu-json stdout is not valid JSON")

type jsonError string

func (e jsonError) Error() string { return string(e) }
