package scanner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeTree creates files relative to root. Keys are slash separated paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func md5Algo(t *testing.T) Algorithm {
	t.Helper()
	a, err := GetAlgorithm("md5")
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// countingFingerprinter records every path it is asked to hash.
type countingFingerprinter struct {
	next  Fingerprinter
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newCounting(next Fingerprinter) *countingFingerprinter {
	return &countingFingerprinter{next: next, calls: make(map[string]int), fail: make(map[string]bool)}
}

func (c *countingFingerprinter) Fingerprint(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	c.calls[path]++
	fail := c.fail[path]
	c.mu.Unlock()
	if fail {
		return "", os.ErrPermission
	}
	return c.next.Fingerprint(ctx, path)
}

func (c *countingFingerprinter) called(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[path]
}
