//go:build windows

package fileinfo

import (
	"os"
	"syscall"
	"time"
)

func attributeData(fi os.FileInfo) *syscall.Win32FileAttributeData {
	data, _ := fi.Sys().(*syscall.Win32FileAttributeData)
	return data
}

func hasHiddenAttribute(fi os.FileInfo) bool {
	data := attributeData(fi)
	return data != nil && data.FileAttributes&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}

func birthTime(_ string, fi os.FileInfo) time.Time {
	data := attributeData(fi)
	if data == nil {
		return time.Time{}
	}
	return unixTime(0, data.CreationTime.Nanoseconds())
}
