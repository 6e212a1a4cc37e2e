package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileHasherKnownDigests(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"foo.txt": "foo"})
	path := filepath.Join(dir, "foo.txt")

	tests := []struct {
		algo string
		want string
	}{
		{"md5", "acbd18db4cc2f85cedef654fccc4a4d8"},
		{"sha1", "0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33"},
		{"sha256", "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"},
	}
	for _, tt := range tests {
		t.Run(tt.algo, func(t *testing.T) {
			algo, err := GetAlgorithm(tt.algo)
			if err != nil {
				t.Fatal(err)
			}
			// a tiny chunk size forces several reads
			h := NewFileHasher(algo, 2, 0)
			got, err := h.Fingerprint(context.Background(), path)
			if err != nil {
				t.Fatalf("Fingerprint: %v", err)
			}
			if got != tt.want {
				t.Errorf("digest = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFileHasherMissingFile(t *testing.T) {
	h := NewFileHasher(md5Algo(t), 0, time.Second)
	_, err := h.Fingerprint(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestFileHasherCancelled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a": "some bytes"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewFileHasher(md5Algo(t), 0, 0)
	if _, err := h.Fingerprint(ctx, filepath.Join(dir, "a")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGetAlgorithmUnknown(t *testing.T) {
	if _, err := GetAlgorithm("crc32"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestMemoFingerprinterHashesOnce(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a": "abc"})
	path := filepath.Join(dir, "a")
	link := filepath.Join(dir, "hardlink")
	if err := os.Link(path, link); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}

	counting := newCounting(NewFileHasher(md5Algo(t), 0, 0))
	memo := newMemoFingerprinter(counting)
	for _, p := range []string{path, path, link} {
		if _, err := memo.Fingerprint(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}
	if n := counting.called(path); n != 1 {
		t.Errorf("underlying hasher called %d times for %s, want 1", n, path)
	}
}
