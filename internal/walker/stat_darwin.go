//go:build darwin

package walker

import (
	"os"
	"syscall"
	"time"
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
		ino:   st.Ino,
		atime: time.Unix(st.Atimespec.Unix()),
		ctime: time.Unix(st.Ctimespec.Unix()),
		birth: time.Unix(st.Birthtimespec.Unix()),
	}
}

// Birth time already comes from Stat_t.
func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}
