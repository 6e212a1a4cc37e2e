package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// DirSignature is the content identity of one directory, built from its
// immediate regular files only.
type DirSignature struct {
	Hash      string
	TotalSize int64
	Files     int
}

// Empty reports whether no file contributed to the signature. Empty
// signatures never take part in duplicate matching.
func (s DirSignature) Empty() bool {
	return s.Files == 0 || s.Hash == ""
}

type SignatureBuilder struct {
	fp     Fingerprinter
	algo   Algorithm
	logger *slog.Logger
}

func NewSignatureBuilder(fp Fingerprinter, algo Algorithm, logger *slog.Logger) *SignatureBuilder {
	return &SignatureBuilder{fp: fp, algo: algo, logger: logger}
}

// Signature lists dir without descending into subdirectories. Files are
// sorted by name and each contributes "name:size:digest"; the joined
// string is hashed. A file that cannot be fingerprinted is logged and left
// out, so the signature only covers the readable part of the directory.
func (b *SignatureBuilder) Signature(ctx context.Context, dir string) (DirSignature, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return DirSignature{}, fmt.Errorf("list %s: %w", dir, err)
	}

	files := slices.DeleteFunc(entries, func(e os.DirEntry) bool {
		return !e.Type().IsRegular()
	})
	slices.SortFunc(files, func(a, c os.DirEntry) int {
		return strings.Compare(a.Name(), c.Name())
	})

	var (
		parts []string
		sig   DirSignature
	)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return DirSignature{}, err
		}
		path := filepath.Join(dir, f.Name())
		info, err := f.Info()
		if err != nil {
			b.logger.Warn("skipping file that cannot be stat'ed", "path", path, "error", err)
			continue
		}
		digest, err := b.fp.Fingerprint(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return DirSignature{}, ctx.Err()
			}
			b.logger.Warn("leaving unreadable file out of directory signature", "path", path, "error", err)
			continue
		}
		parts = append(parts, f.Name()+":"+strconv.FormatInt(info.Size(), 10)+":"+digest)
		sig.TotalSize += info.Size()
		sig.Files++
	}

	if sig.Files == 0 {
		return DirSignature{}, nil
	}
	sig.Hash = b.algo.HashString(strings.Join(parts, "|"))
	return sig, nil
}

// hasRegularFile is a cheap check run before building a signature. It
// stops reading the listing as soon as one regular file turns up.
func hasRegularFile(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	for {
		entries, err := f.ReadDir(64)
		for _, e := range entries {
			if e.Type().IsRegular() {
				return true, nil
			}
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}
