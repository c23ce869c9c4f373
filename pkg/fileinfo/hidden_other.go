//go:build !windows

package fileinfo

import "os"

func hasHiddenAttribute(_ os.FileInfo) bool {
	return false
}
