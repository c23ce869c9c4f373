//go:build linux

package fileinfo

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// birthTime needs statx; filesystems without btime report the zero Time.
func birthTime(path string, _ os.FileInfo) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT|unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}
	}
	return unixTime(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
