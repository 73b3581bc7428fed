// Package procfetch runs external fetch scripts as subprocesses and
// returns their stdout as parsed JSON. It exists for data sources that
// only ship a scripted client: the script does the provider call and
// prints a single JSON document.
package procfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"time"
)

// Sentinel errors. Callers branch on these with errors.Is to map
// subprocess failures onto transport-level responses.
var (
	// ErrTimeout means the script exceeded its deadline and the
	// process was killed.
	ErrTimeout = errors.New("procfetch: script timed out")
	// ErrSpawn means the interpreter could not be started.
	ErrSpawn = errors.New("procfetch: failed to start script")
	// ErrParse means the script exited zero but printed something
	// that is not JSON.
	ErrParse = errors.New("procfetch: script output is not valid JSON")
)

const defaultTimeout = 60 * time.Second

// Runner executes scripts under a configured interpreter. When the
// primary interpreter binary is missing (common on systems where the
// python3/python split differs) the fallback interpreter is tried once.
type Runner struct {
	Interpreter string
	Fallback    string
	ScriptDir   string
	Timeout     time.Duration
}

// NewRunner returns a Runner with defaults filled in.
func NewRunner(interpreter, fallback, scriptDir string, timeout time.Duration) *Runner {
	if interpreter == "" {
		interpreter = "python3"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{
		Interpreter: interpreter,
		Fallback:    fallback,
		ScriptDir:   scriptDir,
		Timeout:     timeout,
	}
}

// Run executes the named script with the given arguments and parses its
// stdout as JSON. The script gets at most r.Timeout to finish; on
// expiry the process is killed and ErrTimeout is returned. Exactly one
// outcome is returned per call regardless of how the process dies.
func (r *Runner) Run(ctx context.Context, script string, args ...string) (json.RawMessage, error) {
	out, err := r.runWith(ctx, r.Interpreter, script, args)
	if err != nil && errors.Is(err, exec.ErrNotFound) && r.Fallback != "" {
		log.Printf("[procfetch] %s not found, retrying with %s", r.Interpreter, r.Fallback)
		out, err = r.runWith(ctx, r.Fallback, script, args)
	}
	if err != nil {
		return nil, err
	}

	out = bytes.TrimSpace(out)
	if !json.Valid(out) {
		return nil, fmt.Errorf("%w (script=%s, %d bytes of output)", ErrParse, script, len(out))
	}
	return json.RawMessage(out), nil
}

func (r *Runner) runWith(ctx context.Context, interpreter, script string, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	scriptPath := script
	if r.ScriptDir != "" {
		scriptPath = filepath.Join(r.ScriptDir, script)
	}

	cmd := exec.CommandContext(ctx, interpreter, append([]string{scriptPath}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Kill outright on deadline; scripts hold no state worth a
	// graceful shutdown, and a wedged child must not pin the request.
	cmd.Cancel = func() error { return cmd.Process.Kill() }
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w (script=%s, limit=%s)", ErrTimeout, script, r.Timeout)
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, interpreter, err)
		}
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return nil, fmt.Errorf("%w: %s: %v: %s", ErrSpawn, script, err, msg)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, script, err)
	}
	// Scripts report degraded fetches on stderr while still exiting
	// zero; keep those diagnostics visible.
	if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
		log.Printf("[procfetch] %s stderr: %s", script, msg)
	}
	return stdout.Bytes(), nil
}
