package scanner

import (
	"io/fs"
	"strconv"
)

type DevIno struct {
	Dev uint64
	Ino uint64
}

func (d DevIno) String() string {
	return strconv.FormatUint(d.Dev, 10) + ":" + strconv.FormatUint(d.Ino, 10)
}

// getFileID reports the device/inode pair identifying the file behind info,
// so hard links to one inode are recognised as the same bytes.
func getFileID(info fs.FileInfo) (DevIno, bool) {
	return fileID(info)
}
