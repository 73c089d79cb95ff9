//go:build linux

package walker

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func sysStat(info os.FileInfo) sysMetadata {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return sysMetadata{}
	}
	return sysMetadata{
		uid:   st.Uid,
		gid:   st.Gid,
		nlink: uint64(st.Nlink),
		dev:   uint64(st.Dev),
		ino:   uint64(st.Ino),
		atime: time.Unix(st.Atim.Unix()),
		ctime: time.Unix(st.Ctim.Unix()),
	}
}

// birthTime asks statx for the creation time. Not every filesystem records
// it; the mask tells us whether the kernel filled it in.
func birthTime(path string) (time.Time, bool) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, false
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
