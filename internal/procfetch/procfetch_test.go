package procfetch

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
}

func shellRunner(t *testing.T, timeout time.Duration) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	return &Runner{Interpreter: "sh", ScriptDir: dir, Timeout: timeout}, dir
}

func TestRunParsesJSON(t *testing.T) {
	r, dir := shellRunner(t, 5*time.Second)
	writeScript(t, dir, "fetch.sh", `echo '{"symbol":"AAPL","ok":true}'`)

	out, err := r.Run(context.Background(), "fetch.sh")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != `{"symbol":"AAPL","ok":true}` {
		t.Errorf("output = %s", out)
	}
}

func TestRunPassesArgs(t *testing.T) {
	r, dir := shellRunner(t, 5*time.Second)
	writeScript(t, dir, "echoarg.sh", `echo "{\"arg\":\"$1\"}"`)

	out, err := r.Run(context.Background(), "echoarg.sh", "MSFT")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != `{"arg":"MSFT"}` {
		t.Errorf("output = %s", out)
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	r, dir := shellRunner(t, 200*time.Millisecond)
	writeScript(t, dir, "slow.sh", `sleep 10; echo '{}'`)

	start := time.Now()
	_, err := r.Run(context.Background(), "slow.sh")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("timeout took %s, process was not killed promptly", elapsed)
	}
}

func TestRunParseError(t *testing.T) {
	r, dir := shellRunner(t, 5*time.Second)
	writeScript(t, dir, "garbage.sh", `echo 'Traceback (most recent call last):'`)

	_, err := r.Run(context.Background(), "garbage.sh")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestRunLogsStderrOnSuccess(t *testing.T) {
	r, dir := shellRunner(t, 5*time.Second)
	writeScript(t, dir, "noisy.sh", `echo 'BALANCE_SHEET degraded to {}' >&2; echo '{"ok":true}'`)

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	out, err := r.Run(context.Background(), "noisy.sh")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != `{"ok":true}` {
		t.Errorf("output = %s", out)
	}
	if !strings.Contains(logs.String(), "BALANCE_SHEET degraded to {}") {
		t.Errorf("stderr diagnostics not logged, got %q", logs.String())
	}
}

func TestRunFallbackInterpreter(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "fetch.sh", `echo '{"via":"fallback"}'`)
	r := &Runner{
		Interpreter: "no-such-interpreter-zz",
		Fallback:    "sh",
		ScriptDir:   dir,
		Timeout:     5 * time.Second,
	}

	out, err := r.Run(context.Background(), "fetch.sh")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != `{"via":"fallback"}` {
		t.Errorf("output = %s", out)
	}
}

func TestRunSpawnError(t *testing.T) {
	r := &Runner{
		Interpreter: "no-such-interpreter-zz",
		Timeout:     time.Second,
	}

	_, err := r.Run(context.Background(), "fetch.sh")
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("err = %v, want ErrSpawn", err)
	}
}

func TestRunScriptFailure(t *testing.T) {
	r, dir := shellRunner(t, 5*time.Second)
	writeScript(t, dir, "fail.sh", `echo 'boom' >&2; exit 1`)

	_, err := r.Run(context.Background(), "fail.sh")
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("err = %v, want ErrSpawn", err)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner("", "", "data", 0)
	if r.Interpreter != "python3" {
		t.Errorf("interpreter = %q", r.Interpreter)
	}
	if r.Timeout != defaultTimeout {
		t.Errorf("timeout = %s", r.Timeout)
	}
}
