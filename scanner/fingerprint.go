package scanner

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/riadafridishibly/neatfs/cache"
)

// Algorithm names a streaming hash usable for fingerprints.
type Algorithm struct {
	Name    string
	NewFunc func() hash.Hash
}

// GetAlgorithm returns the algorithm registered under name.
func GetAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md5":
		return Algorithm{Name: "md5", NewFunc: md5.New}, nil
	case "sha1":
		return Algorithm{Name: "sha1", NewFunc: sha1.New}, nil
	case "sha256":
		return Algorithm{Name: "sha256", NewFunc: sha256.New}, nil
	case "sha512":
		return Algorithm{Name: "sha512", NewFunc: sha512.New}, nil
	default:
		return Algorithm{}, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

// HashString digests an in-memory string, used for directory signatures.
func (a Algorithm) HashString(s string) string {
	h := a.NewFunc()
	io.WriteString(h, s)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprinter computes the content digest of a file. Implementations must
// be safe for concurrent use.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (string, error)
}

var ErrReadTimeout = errors.New("read timed out")

// FileHasher reads files in fixed-size chunks and folds them into a hash.
type FileHasher struct {
	algo      Algorithm
	chunkSize int
	timeout   time.Duration
	bufs      sync.Pool
}

func NewFileHasher(algo Algorithm, chunkSize int, timeout time.Duration) *FileHasher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	h := &FileHasher{algo: algo, chunkSize: chunkSize, timeout: timeout}
	h.bufs.New = func() any {
		b := make([]byte, chunkSize)
		return &b
	}
	return h
}

func (h *FileHasher) Fingerprint(ctx context.Context, path string) (string, error) {
	if h.timeout <= 0 {
		return h.hashFile(ctx, path)
	}

	ctx, cancel := context.WithTimeoutCause(ctx, h.timeout, ErrReadTimeout)
	defer cancel()

	type result struct {
		digest string
		err    error
	}
	// A read stuck in the kernel cannot be interrupted; the watchdog lets the
	// caller move on and the goroutine exits once the read returns.
	done := make(chan result, 1)
	go func() {
		d, err := h.hashFile(ctx, path)
		done <- result{d, err}
	}()

	select {
	case r := <-done:
		return r.digest, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("hash %s: %w", path, context.Cause(ctx))
	}
}

func (h *FileHasher) hashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bp := h.bufs.Get().(*[]byte)
	defer h.bufs.Put(bp)
	buf := *bp

	hasher := h.algo.NewFunc()
	for {
		if ctx.Err() != nil {
			return "", fmt.Errorf("hash %s: %w", path, context.Cause(ctx))
		}
		n, err := f.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// memoFingerprinter remembers digests for the lifetime of one scan so the
// file and directory passes never read the same file twice. Hard links
// share one entry when the platform exposes device and inode numbers.
type memoFingerprinter struct {
	next Fingerprinter
	mu   sync.Mutex
	seen map[string]string
}

func newMemoFingerprinter(next Fingerprinter) *memoFingerprinter {
	return &memoFingerprinter{next: next, seen: make(map[string]string)}
}

func (m *memoFingerprinter) Fingerprint(ctx context.Context, path string) (string, error) {
	key := path
	if info, err := os.Stat(path); err == nil {
		if id, ok := getFileID(info); ok {
			key = id.String()
		}
	}

	m.mu.Lock()
	digest, ok := m.seen[key]
	m.mu.Unlock()
	if ok {
		return digest, nil
	}

	digest, err := m.next.Fingerprint(ctx, path)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.seen[key] = digest
	m.mu.Unlock()
	return digest, nil
}

// cachedFingerprinter consults the persistent hash cache before reading a
// file. An entry is trusted only if size, mtime and algorithm all match.
type cachedFingerprinter struct {
	next      Fingerprinter
	cache     *cache.Cache
	algorithm string
	onError   func(path string, err error)
}

func (c *cachedFingerprinter) Fingerprint(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if entry, err := c.cache.Get(path); err == nil {
		if entry.Size == info.Size() &&
			entry.ModifiedAt.Equal(info.ModTime()) &&
			entry.Algorithm == c.algorithm {
			return entry.Digest, nil
		}
	}

	digest, err := c.next.Fingerprint(ctx, path)
	if err != nil {
		return "", err
	}

	entry := &cache.Entry{
		Path:       path,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		Algorithm:  c.algorithm,
		Digest:     digest,
		HashedAt:   time.Now(),
	}
	if err := c.cache.InsertOrUpdate(entry); err != nil && c.onError != nil {
		c.onError(path, err)
	}
	return digest, nil
}
