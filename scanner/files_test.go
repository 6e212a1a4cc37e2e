package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/riadafridishibly/neatfs/dupes"
)

func newTestFileDetector(t *testing.T, root string, fp Fingerprinter) *FileDetector {
	t.Helper()
	w := NewWalker(root, nil, 4, discardLogger())
	return NewFileDetector(w, fp, 4, discardLogger())
}

func TestFindDuplicateFilesScenario(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/1.bin": "foo",
		"b/1.bin": "foo",
		"c/2.bin": "bar",
	})

	d := newTestFileDetector(t, root, NewFileHasher(md5Algo(t), 0, 0))
	sets, stats, err := d.Find(context.Background())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1: %+v", len(sets), sets)
	}

	set := sets[0]
	if set.Kind != dupes.File {
		t.Errorf("kind = %s, want file", set.Kind)
	}
	want := []string{filepath.Join(root, "a", "1.bin"), filepath.Join(root, "b", "1.bin")}
	if got := set.Paths(); !slices.Equal(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
	if set.Signature != "acbd18db4cc2f85cedef654fccc4a4d8" {
		t.Errorf("signature = %s", set.Signature)
	}
	if set.TotalSize() != 3 {
		t.Errorf("size = %d, want 3", set.TotalSize())
	}
	if stats.Files != 3 || stats.Hashed != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestSameSizeDifferentContentStaysOut(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"x/a.txt": "same!",
		"y/b.txt": "same!",
		"z/c.txt": "other",
	})

	d := newTestFileDetector(t, root, NewFileHasher(md5Algo(t), 0, 0))
	sets, _, err := d.Find(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}
	if slices.Contains(sets[0].Paths(), filepath.Join(root, "z", "c.txt")) {
		t.Errorf("file with different content joined the set")
	}
}

func TestUniqueSizesAreNeverHashed(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"one.txt":    "abc",
		"two.txt":    "abc",
		"unique.txt": "a much longer unique file",
		"lonely.txt": "z",
	})

	counting := newCounting(NewFileHasher(md5Algo(t), 0, 0))
	d := newTestFileDetector(t, root, counting)
	sets, stats, err := d.Find(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"unique.txt", "lonely.txt"} {
		if n := counting.called(filepath.Join(root, name)); n != 0 {
			t.Errorf("%s hashed %d times, want 0", name, n)
		}
	}
	if stats.Candidates != 2 || stats.Buckets != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	for _, s := range sets {
		if len(s.Items) < 2 {
			t.Errorf("set with %d items", len(s.Items))
		}
	}
}

func TestHashFailureDoesNotBlockBucket(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a": "dup",
		"b": "dup",
		"c": "dup",
	})

	counting := newCounting(NewFileHasher(md5Algo(t), 0, 0))
	counting.fail[filepath.Join(root, "c")] = true

	d := newTestFileDetector(t, root, counting)
	sets, stats, err := d.Find(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}
	want := []string{filepath.Join(root, "a"), filepath.Join(root, "b")}
	if got := sets[0].Paths(); !slices.Equal(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}
}

func TestThreeIdenticalFilesWaste(t *testing.T) {
	root := t.TempDir()
	content := string(make([]byte, 100))
	writeTree(t, root, map[string]string{
		"p/1": content,
		"q/2": content,
		"r/3": content,
	})

	d := newTestFileDetector(t, root, NewFileHasher(md5Algo(t), 16, 0))
	sets, _, err := d.Find(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}
	if w := sets[0].WastedSpace(); w != 200 {
		t.Errorf("wasted = %d, want 200", w)
	}
	if c := sets[0].DuplicateCount(); c != 2 {
		t.Errorf("duplicate count = %d, want 2", c)
	}
}

func TestFindFilesCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "x", "b": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := newTestFileDetector(t, root, NewFileHasher(md5Algo(t), 0, 0))
	if _, _, err := d.Find(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
