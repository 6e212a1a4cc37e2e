// Package dupes holds the result types produced by the scanner: groups of
// files or directories proven identical, plus the derived sizes reporting
// code needs.
package dupes

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Kind int

const (
	File Kind = iota
	Directory
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Item is one filesystem entry taking part in a duplicate group.
type Item struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	Kind Kind   `json:"kind"`
}

// Set is a group of at least two items sharing a signature. For files the
// signature is the content digest; for directories it is the digest of the
// directory listing signature.
type Set struct {
	Signature string `json:"signature"`
	Kind      Kind   `json:"kind"`
	Items     []Item `json:"items"`
}

var ErrInvalidSet = errors.New("invalid duplicate set")

// NewSet validates members before building the set.
func NewSet(kind Kind, signature string, items []Item) (Set, error) {
	if len(items) < 2 {
		return Set{}, fmt.Errorf("%w: %d items, need at least 2", ErrInvalidSet, len(items))
	}
	if signature == "" {
		return Set{}, fmt.Errorf("%w: empty signature", ErrInvalidSet)
	}
	size := items[0].Size
	for _, it := range items {
		if it.Kind != kind {
			return Set{}, fmt.Errorf("%w: %s is a %s in a %s set", ErrInvalidSet, it.Path, it.Kind, kind)
		}
		if it.Size != size {
			return Set{}, fmt.Errorf("%w: %s has size %d, expected %d", ErrInvalidSet, it.Path, it.Size, size)
		}
	}
	return Set{Signature: signature, Kind: kind, Items: items}, nil
}

// TotalSize is the size of one member. All members share it.
func (s Set) TotalSize() int64 {
	if len(s.Items) == 0 {
		return 0
	}
	return s.Items[0].Size
}

// WastedSpace is the number of bytes taken by every copy but one.
func (s Set) WastedSpace() int64 {
	return s.TotalSize() * int64(s.DuplicateCount())
}

func (s Set) DuplicateCount() int {
	if len(s.Items) == 0 {
		return 0
	}
	return len(s.Items) - 1
}

func (s Set) Paths() []string {
	paths := make([]string, len(s.Items))
	for i, it := range s.Items {
		paths[i] = it.Path
	}
	return paths
}

type Summary struct {
	Sets       int   `json:"sets"`
	Duplicates int   `json:"duplicates"`
	Wasted     int64 `json:"wasted_bytes"`
}

func Summarize(sets []Set) Summary {
	var sum Summary
	for _, s := range sets {
		sum.Sets++
		sum.Duplicates += s.DuplicateCount()
		sum.Wasted += s.WastedSpace()
	}
	return sum
}

// SortByWaste orders sets by wasted space, largest first, breaking ties on
// the first member path.
func SortByWaste(sets []Set) {
	slices.SortStableFunc(sets, func(a, b Set) int {
		if wa, wb := a.WastedSpace(), b.WastedSpace(); wa != wb {
			if wa > wb {
				return -1
			}
			return 1
		}
		return strings.Compare(firstPath(a), firstPath(b))
	})
}

func firstPath(s Set) string {
	if len(s.Items) == 0 {
		return ""
	}
	return s.Items[0].Path
}
