package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer safe for the server's handler goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// noEnvFile points --env-file at a file that does not exist so a stray .env
// in the working directory never leaks into a test.
func noEnvFile(t *testing.T) []string {
	t.Helper()
	return []string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}
}

// execute runs the command tree with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(context.Background(), t, args...)
}

func executeContext(ctx context.Context, t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr syncBuffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, noEnvFile(t)...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}
