//go:build unix

package scanner

import (
	"io/fs"
	"syscall"
)

func fileID(info fs.FileInfo) (DevIno, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return DevIno{}, false
	}
	return DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, true
}
