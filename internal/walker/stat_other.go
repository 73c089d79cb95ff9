//go:build !linux && !darwin

package walker

import (
	"os"
	"time"
)

func sysStat(os.FileInfo) sysMetadata {
	return sysMetadata{}
}

func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}
