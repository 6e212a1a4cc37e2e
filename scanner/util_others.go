//go:build !unix

package scanner

import "io/fs"

// Portable systems don't expose inode numbers through FileInfo, so the
// memo falls back to keying on the path.
func fileID(_ fs.FileInfo) (DevIno, bool) {
	return DevIno{}, false
}
