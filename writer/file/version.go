// FILE: lixenwraith/logpipe/writer/file/version.go
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

// versionInfo describes the running program for the first entry of each log file
func versionInfo() string {
	program := filepath.Base(os.Args[0])
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Path != "" {
			program = bi.Main.Path
		}
		if bi.Main.Version != "" {
			version = bi.Main.Version
		}
	}
	return fmt.Sprintf("Log file created by %s version %s (%s %s/%s, pid %d)",
		program, version, runtime.Version(), runtime.GOOS, runtime.GOARCH, os.Getpid())
}
