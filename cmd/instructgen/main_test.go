package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaStub(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "OK", "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestExecuteRunVerifyHistory(t *testing.T) {
	srv, calls := ollamaStub(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "data", "dataset.jsonl")
	history := filepath.Join(dir, "runs.db")

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"run",
		"-samples", "5",
		"-concurrency", "2",
		"-backend-url", srv.URL,
		"-output", out,
		"-history", history,
		"-seed", "3",
		"-log-level", "error",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, int64(5), calls.Load())
	assert.Contains(t, stdout.String(), "generated 5 / requested 5")
	assert.Contains(t, stdout.String(), "dataset generation finished")

	stdout.Reset()
	code = execute(context.Background(), []string{"verify", out}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "5 records")

	stdout.Reset()
	code = execute(context.Background(), []string{"history", "-history", history}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "REQUESTED")
	assert.Contains(t, lines[1], out)
}

func TestExecuteRunRequiresSamples(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"run", "-output", filepath.Join(t.TempDir(), "o.jsonl")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), errSamplesRequired.Error())
}

func TestExecuteRunExplicitZeroSamples(t *testing.T) {
	srv, calls := ollamaStub(t)
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"run",
		"-samples", "0",
		"-backend-url", srv.URL,
		"-output", filepath.Join(t.TempDir(), "o.jsonl"),
		"-log-level", "error",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Zero(t, calls.Load())
}

func TestExecuteRunInvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"run", "-samples", "1", "-concurrency", "0"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Concurrency")
}

func TestExecuteCorpus(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"corpus", "-category", "prog"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "templates:")
	assert.Contains(t, stdout.String(), "Programming:")
	assert.NotContains(t, stdout.String(), "Math and Logic:")
}

func TestExecuteUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, execute(context.Background(), nil, &stdout, &stderr))
	assert.Equal(t, 2, execute(context.Background(), []string{"bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "bogus"`)
	assert.Equal(t, 0, execute(context.Background(), []string{"help"}, &stdout, &stderr))
}

func TestExecuteVerifyMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"verify", filepath.Join(t.TempDir(), "nope.jsonl")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestExecuteHistoryRequiresPath(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"history"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "-history is required")
}
