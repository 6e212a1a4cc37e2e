package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/riadafridishibly/neatfs/cache"
)

func TestNewRejectsBadRoots(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"file.txt": "x"})

	tests := []struct {
		name string
		root string
		want error
	}{
		{"missing", filepath.Join(dir, "does-not-exist"), ErrRootNotFound},
		{"not a directory", filepath.Join(dir, "file.txt"), ErrRootNotDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{Root: tt.root})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewRejectsConflictingModes(t *testing.T) {
	_, err := New(Options{Root: t.TempDir(), FilesOnly: true, DirsOnly: true})
	if !errors.Is(err, ErrConflictingModes) {
		t.Fatalf("expected ErrConflictingModes, got %v", err)
	}
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	_, err := New(Options{Root: t.TempDir(), Algorithm: "adler32"})
	if !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

// resolvedTempDir is t.TempDir with symlinks evaluated, which is how the
// scanner reports roots.
func resolvedTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func fixture(t *testing.T) string {
	t.Helper()
	root := resolvedTempDir(t)
	writeTree(t, root, map[string]string{
		"a/1.bin": "foo",
		"b/1.bin": "foo",
		"c/2.bin": "barbaz",
	})
	return root
}

func TestRunModes(t *testing.T) {
	root := fixture(t)

	tests := []struct {
		name      string
		opts      Options
		wantFiles int
		wantDirs  int
	}{
		{"both", Options{}, 1, 1},
		{"files only", Options{FilesOnly: true}, 1, 0},
		{"dirs only", Options{DirsOnly: true}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Root = root
			opts.Logger = discardLogger()
			s, err := New(opts)
			if err != nil {
				t.Fatal(err)
			}
			report, err := s.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(report.Files) != tt.wantFiles {
				t.Errorf("file sets = %d, want %d", len(report.Files), tt.wantFiles)
			}
			if len(report.Directories) != tt.wantDirs {
				t.Errorf("directory sets = %d, want %d", len(report.Directories), tt.wantDirs)
			}
			if report.ScanID == "" || report.Root != root {
				t.Errorf("unexpected report header: %q %q", report.ScanID, report.Root)
			}
		})
	}
}

func TestRunWithExclude(t *testing.T) {
	root := fixture(t)
	s, err := New(Options{
		Root:      root,
		Exclude:   []string{filepath.Join(root, "b")},
		FilesOnly: true,
		Logger:    discardLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 0 {
		t.Errorf("excluded copy should leave no duplicates, got %+v", report.Files)
	}
}

func TestRunResolvesSymlinkedRoot(t *testing.T) {
	base := resolvedTempDir(t)
	target := filepath.Join(base, "target")
	writeTree(t, target, map[string]string{
		"keep/a.bin": "foo",
		"keep/b.bin": "foo",
		"skip/a.bin": "foo",
	})
	link := filepath.Join(base, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name    string
		exclude string
	}{
		{"exclude by target path", filepath.Join(target, "skip")},
		{"exclude by link path", filepath.Join(link, "skip")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(Options{
				Root:      link,
				Exclude:   []string{tt.exclude},
				FilesOnly: true,
				Logger:    discardLogger(),
			})
			if err != nil {
				t.Fatal(err)
			}
			report, err := s.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if report.Root != target {
				t.Errorf("root = %q, want %q", report.Root, target)
			}
			if len(report.Files) != 1 {
				t.Fatalf("file sets = %d, want 1: %+v", len(report.Files), report.Files)
			}
			want := []string{filepath.Join(target, "keep", "a.bin"), filepath.Join(target, "keep", "b.bin")}
			got := report.Files[0].Paths()
			if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
				t.Errorf("paths = %v, want %v", got, want)
			}
		})
	}
}

func TestRunReusesCachedDigests(t *testing.T) {
	root := fixture(t)
	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	s, err := New(Options{Root: root, FilesOnly: true, Cache: c, Logger: discardLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	entry, err := c.Get(filepath.Join(root, "a", "1.bin"))
	if err != nil {
		t.Fatalf("expected cached digest: %v", err)
	}
	if entry.Digest != "acbd18db4cc2f85cedef654fccc4a4d8" || entry.Algorithm != "md5" {
		t.Errorf("unexpected cache entry: %+v", entry)
	}
	if _, err := c.Get(filepath.Join(root, "c", "2.bin")); err == nil {
		t.Errorf("file of unique size must not be hashed or cached")
	}
}

func TestStartStreamsResults(t *testing.T) {
	root := fixture(t)
	s, err := New(Options{Root: root, Logger: discardLogger()})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var got int
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range s.Results() {
			got++
		}
	}()
	go func() {
		defer wg.Done()
		for range s.Progress() {
			// Discard progress updates to prevent blocking
		}
	}()
	s.Start()
	wg.Wait()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not finish")
	}
	if s.Err() != nil {
		t.Fatalf("scan error: %v", s.Err())
	}
	if got != 2 {
		t.Errorf("received %d sets, want 2", got)
	}
	if s.IsRunning() {
		t.Errorf("scanner still running after Done")
	}
}

func TestStopWhileRunning(t *testing.T) {
	root := fixture(t)
	s, err := New(Options{Root: root, Logger: discardLogger()})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range s.Results() {
		}
	}()
	go func() {
		defer wg.Done()
		for range s.Progress() {
		}
	}()

	s.Start()
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	wg.Wait()

	if err := s.Err(); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error: %v", err)
	}
	// a finished scanner ignores further calls
	s.Start()
	s.Stop()
	if s.IsRunning() {
		t.Error("scanner restarted after finishing")
	}
}
