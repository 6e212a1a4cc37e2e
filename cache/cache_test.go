package cache

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestInsertAndGet(t *testing.T) {
	c := openTemp(t)

	mod := time.Unix(1700000000, 123456789)
	in := &Entry{
		Path:       "/data/a.bin",
		Size:       42,
		ModifiedAt: mod,
		Algorithm:  "md5",
		Digest:     "acbd18db4cc2f85cedef654fccc4a4d8",
		HashedAt:   time.Unix(1700000100, 0),
	}
	if err := c.InsertOrUpdate(in); err != nil {
		t.Fatalf("InsertOrUpdate: %v", err)
	}

	got, err := c.Get(in.Path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Size != 42 || got.Digest != in.Digest || got.Algorithm != "md5" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if !got.ModifiedAt.Equal(mod) {
		t.Errorf("ModifiedAt = %v, want %v", got.ModifiedAt, mod)
	}

	in.Digest = "37b51d194a7513e45b56f6524f2d51f2"
	if err := c.InsertOrUpdate(in); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = c.Get(in.Path)
	if got.Digest != in.Digest {
		t.Errorf("digest not updated: %s", got.Digest)
	}
}

func TestGetMissing(t *testing.T) {
	c := openTemp(t)
	if _, err := c.Get("/nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPruneRemovesVanishedFiles(t *testing.T) {
	c := openTemp(t)
	root := t.TempDir()

	kept := filepath.Join(root, "kept.txt")
	if err := os.WriteFile(kept, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	gone := filepath.Join(root, "gone.txt")
	outside := "/elsewhere/gone.txt"

	for _, p := range []string{kept, gone, outside} {
		if err := c.InsertOrUpdate(&Entry{Path: p, Algorithm: "md5", Digest: "d"}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Prune(root)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d entries, want 1", n)
	}
	if _, err := c.Get(kept); err != nil {
		t.Errorf("kept entry missing: %v", err)
	}
	if _, err := c.Get(outside); err != nil {
		t.Errorf("entry outside root should survive: %v", err)
	}
}

func TestOpenTwiceIsLocked(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, err := Open(dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}
