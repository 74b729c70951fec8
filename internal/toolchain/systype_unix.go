//go:build linux || darwin

package toolchain

import (
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// sysType derives the platform identifier from uname, e.g. "linux-x86_64".
func sysType() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOOS + "-" + runtime.GOARCH
	}
	sys := strings.ToLower(unix.ByteSliceToString(uts.Sysname[:]))
	machine := unix.ByteSliceToString(uts.Machine[:])
	return sys + "-" + machine
}
