//go:build !(linux || darwin)

package toolchain

import "runtime"

func sysType() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}
