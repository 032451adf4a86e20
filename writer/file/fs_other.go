// FILE: lixenwraith/logpipe/writer/file/fs_other.go
//go:build !unix

package file

import (
	"errors"
	"os"
)

func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }

func isLocked(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	_ = f.Close()
	return false
}

func diskFree(string) (uint64, error) {
	return 0, errors.New("disk free space not supported on this platform")
}
